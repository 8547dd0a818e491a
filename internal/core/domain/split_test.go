package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	type TestCase struct {
		description  string
		raw          string
		wantAction   string
		wantArgument string
	}

	testCases := []TestCase{
		{
			description:  "should split action from argument",
			raw:          "?timer 1d2h hello",
			wantAction:   "timer",
			wantArgument: "1d2h hello",
		},
		{
			description:  "action only",
			raw:          "?weather",
			wantAction:   "weather",
			wantArgument: "",
		},
		{
			description:  "empty after prefix",
			raw:          "?",
			wantAction:   "",
			wantArgument: "",
		},
		{
			description:  "only the first delimiter is removed",
			raw:          "?chat  two spaces",
			wantAction:   "chat",
			wantArgument: " two spaces",
		},
		{
			description:  "newline counts as whitespace",
			raw:          "?chat\nmultiline prompt",
			wantAction:   "chat",
			wantArgument: "multiline prompt",
		},
		{
			description:  "action is not lowercased",
			raw:          "?Chat hi",
			wantAction:   "Chat",
			wantArgument: "hi",
		},
		{
			description:  "leading whitespace yields empty action",
			raw:          "? help",
			wantAction:   "",
			wantArgument: "help",
		},
		{
			description:  "only one prefix is stripped",
			raw:          "??chat",
			wantAction:   "?chat",
			wantArgument: "",
		},
		{
			description:  "trailing delimiter leaves empty argument",
			raw:          "?geo ",
			wantAction:   "geo",
			wantArgument: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			action, argument := Split("?", testCase.raw)

			assert.Equal(t, testCase.wantAction, action)
			assert.Equal(t, testCase.wantArgument, argument)
		})
	}
}

func TestSplitRejoinsSpaceSeparatedInput(t *testing.T) {
	inputs := []string{
		"timer 1d2h hello",
		"chat what is the weather like",
		"a b",
		"weather",
		"x",
	}

	for _, s := range inputs {
		action, argument := Split("?", "?"+s)
		if argument == "" && action == s {
			continue
		}
		assert.Equal(t, s, action+" "+argument)
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("?", "?chat"))
	assert.True(t, HasPrefix("?", "?"))
	assert.False(t, HasPrefix("?", "chat?"))
	assert.False(t, HasPrefix("", "?chat"))
}
