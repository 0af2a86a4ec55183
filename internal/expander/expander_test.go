package expander_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"stylefinder/internal/expander"
	"stylefinder/internal/llm"
)

// MockGenerator is a mock implementation of llm.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestExpander_Expand(t *testing.T) {
	gen := new(MockGenerator)
	e := expander.New(gen, expander.Config{})

	gen.On("Generate", mock.Anything, expander.Prompt("red party dress")).
		Return(" red dress, party dress ,, evening wear,red dress\n", nil).Once()

	terms := e.Expand(context.Background(), "red party dress")
	assert.Equal(t, []string{"red dress", "party dress", "evening wear"}, terms)
	gen.AssertExpectations(t)
}

func TestExpander_Expand_Fallback(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{name: "generator error", err: errors.New("quota exceeded")},
		{name: "empty output", out: "  "},
		{name: "only separators", out: " , ,\n,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", mock.Anything, mock.Anything).Return(tt.out, tt.err).Once()

			terms := expander.New(gen, expander.Config{}).Expand(context.Background(), "Blue Jacket ")
			assert.Equal(t, []string{"Blue Jacket "}, terms)
			gen.AssertExpectations(t)
		})
	}
}

func TestExpander_Expand_NilGenerator(t *testing.T) {
	assert.Equal(t, []string{"linen shirt"}, expander.New(nil, expander.Config{}).Expand(context.Background(), "linen shirt"))
}

func TestExpander_Expand_Timeout(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e := expander.New(gen, expander.Config{Timeout: 10 * time.Millisecond})

	assert.Equal(t, []string{"kurta"}, e.Expand(context.Background(), "kurta"))
}

func TestExpander_Expand_BreakerOpens(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("unavailable")).Times(2)
	e := expander.New(gen, expander.Config{BreakerFailures: 2, BreakerCooldown: time.Hour})

	for i := 0; i < 5; i++ {
		assert.Equal(t, []string{"jeans"}, e.Expand(context.Background(), "jeans"))
	}
	// the open breaker short-circuits the remaining calls
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, expander.ParseTerms("a, b c ,a,,"))
	assert.Empty(t, expander.ParseTerms(""))
	assert.Equal(t, []string{"Red", "red"}, expander.ParseTerms("Red,red"))
}
