// Package prompt provides interactive prompts for the Forge CLI.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/preset"
)

// errCanceled marks prompts the user backed out of (EOF on stdin).
var errCanceled = errors.New("prompt canceled")

// IsCanceled reports whether err came from a prompt the user canceled.
func IsCanceled(err error) bool {
	return errors.Is(err, errCanceled)
}

// Prompter handles interactive prompts.
type Prompter struct {
	out    *output.Writer
	reader *bufio.Reader
}

// New creates a new Prompter.
func New(out *output.Writer) *Prompter {
	return &Prompter{
		out:    out,
		reader: bufio.NewReader(os.Stdin),
	}
}

// CanPrompt returns true if interactive prompts are available.
func (p *Prompter) CanPrompt() bool {
	// Check if stdout is a terminal
	return term.IsTerminal(int(os.Stdout.Fd())) && !p.out.NoInput
}

// Confirm prompts for a yes/no confirmation.
func (p *Prompter) Confirm(message string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	p.out.Print("%s [%s]: ", message, defaultStr)

	input, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return defaultValue, errCanceled
		}

		return defaultValue, fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultValue, nil
	}

	return input == "y" || input == "yes", nil
}

// Select prompts the user to select from a list of options.
func (p *Prompter) Select(message string, options []string) (int, error) {
	p.out.Println(message)
	for i, opt := range options {
		p.out.Print("  [%d] %s\n", i+1, opt)
	}
	p.out.Println()

	for {
		p.out.Print("Select [1-%d]: ", len(options))

		input, err := p.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return -1, errCanceled
			}

			return -1, fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(options) {
			p.out.Warning("Invalid selection. Please enter a number between 1 and %d", len(options))
			continue
		}

		return num - 1, nil
	}
}

// SelectPreset prompts the user to pick a preset by name and returns
// the chosen name. Names sets the display order.
func SelectPreset(names []string, presets map[string]preset.Preset, out *output.Writer) (string, error) {
	out.Println()
	out.Print("Available presets:\n\n")

	for i, name := range names {
		p := presets[name]
		out.Print("  [%d] %-16s %s [%s]\n", i+1, name, strings.Join(p.Kinds, ", "), p.Source)
	}

	out.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		if len(names) == 1 {
			out.Print("Select preset [1]: ")
		} else {
			out.Print("Select preset [1-%d]: ", len(names))
		}

		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errCanceled
			}

			return "", fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(names) {
			out.Warning("Invalid selection. Please enter a number between 1 and %d", len(names))
			continue
		}

		return names[num-1], nil
	}
}
