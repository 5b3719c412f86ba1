// Package media lists and plays the audio files the scanner plays when its
// button is pressed.
package media

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Extension is the extension of playable media files.
const Extension = ".wav"

// ErrNoMedia is returned when choosing from an empty library.
var ErrNoMedia = errors.New("no media files available")

// Library is the list of playable media files in a directory. It is listed
// once and never changes afterwards.
type Library struct {
	// Dir is the directory the library was listed from.
	Dir string
	// Entries are the names of the media files, sorted.
	Entries []string
}

// List lists the regular files in dir that end with ext.
func List(dir, ext string) (Library, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return Library{}, errors.Wrap(err, "failed to list media directory")
	}

	lib := Library{Dir: dir}
	for _, entry := range dirEntries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		lib.Entries = append(lib.Entries, entry.Name())
	}

	sort.Strings(lib.Entries)
	return lib, nil
}

// Len returns the number of entries.
func (l Library) Len() int {
	return len(l.Entries)
}

// Path returns the full path of the given entry.
func (l Library) Path(entry string) string {
	return filepath.Join(l.Dir, entry)
}

// Choose picks an entry uniformly at random.
func (l Library) Choose(r *rand.Rand) (string, error) {
	if len(l.Entries) == 0 {
		return "", ErrNoMedia
	}
	return l.Entries[r.Intn(len(l.Entries))], nil
}

// Player plays media files.
type Player interface {
	// Play plays the file at path and blocks until it has finished.
	Play(ctx context.Context, path string) error
}

// PlaybackError is returned when an entry could not be played.
type PlaybackError struct {
	Entry string
	Err   error
}

func (err *PlaybackError) Error() string {
	if err.Entry == "" {
		return fmt.Sprintf("playback failed: %v", err.Err)
	}
	return fmt.Sprintf("failed to play %q: %v", err.Entry, err.Err)
}

func (err *PlaybackError) Unwrap() error {
	return err.Err
}

// DefaultCommand is the player command used when none is configured.
var DefaultCommand = []string{"aplay", "-q"}

// CommandPlayer plays media by running an external command with the file path
// appended as its last argument.
type CommandPlayer struct {
	Command []string
}

var _ Player = CommandPlayer{}

// Play implements Player.
func (p CommandPlayer) Play(ctx context.Context, path string) error {
	command := p.Command
	if len(command) == 0 {
		command = DefaultCommand
	}

	args := append(command[1:len(command):len(command)], path)

	cmd := exec.CommandContext(ctx, command[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return errors.Wrapf(err, "%s: %s", command[0], msg)
		}
		return errors.Wrap(err, command[0])
	}

	return nil
}
