package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_CensorWords(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"badger", "snake", "mushroom"}, replacementChar, log)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{"Simple word and space preservation", "The badger is here", "The ****** is here", []string{"badger"}},
		{"Multiple occurrences", "badger badger", "****** ******", []string{"badger", "badger"}},
		{"Leet speak and internal punctuation", "Look at B.4.d.g.€r now", "Look at ********** now", []string{"badger"}},
		{"Uppercase and noise", "S-N-A-K-E is a B.A.D.G.E.R", "********* is a ***********", []string{"snake", "badger"}},
		{"Accents are preserved", "Un été avec un badger", "Un été avec un ******", []string{"badger"}},
		{"Nothing to censor", "entra na sala...", "entra na sala...", nil},
		{"Empty string", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			content, words := mod.CensorWords(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
			req.Equal(tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestNewModerator_Ignores_Noise_Only_Entries(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mod, err := NewModerator([]string{"...", ",,,", "", "badger"}, replacementChar, log)
	req.NoError(err)

	content, words := mod.CensorWords("Hello ... badger")
	req.Equal("Hello ... ******", content)
	req.Equal([]string{"badger"}, words)

	_, err = NewModerator([]string{"...", " "}, replacementChar, log)
	req.Error(err)
}

func TestParseWords(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"badger", "snake"}, ParseWords(" badger, ,snake,"))
	req.Empty(ParseWords(""))
}
