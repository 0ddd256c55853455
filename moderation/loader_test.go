package moderation

import (
	"log/slog"
	"testing"
	"testing/fstest"

	"stranger-chat/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)

	// Given two dictionaries sharing a word
	fsys := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("# comment\nbadger\r\nsnake\n\n")},
		"censored/fr.txt":    {Data: []byte("blaireau\nbadger\n")},
		"censored/README.md": {Data: []byte("not a dictionary")},
	}

	// When they are loaded
	data, err := NewCensoredLoader(fsys).LoadAll("censored")

	// Then words are deduplicated and languages listed
	req.NoError(err)
	req.ElementsMatch([]string{"badger", "snake", "blaireau"}, data.Words)
	req.Equal([]string{"en", "fr"}, data.Languages)
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{"censored/en.txt": {Data: []byte("\n# nothing\n")}}

	_, err := NewCensoredLoader(fsys).LoadAll("censored")
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestCensoredLoader_Embedded(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given the dictionaries shipped with the binary
	data, err := NewEmbeddedLoader().LoadAll(DefaultCensoredDir)
	req.NoError(err)
	req.Contains(data.Languages, "en")

	// Then a moderator can be built from them
	mod, err := NewModerator(data.Words, replacementChar, log)
	req.NoError(err)
	content, words := mod.Censor("Sh1t_happens")
	req.Equal("****_happens", content)
	req.Equal([]string{"shit"}, words)
}
