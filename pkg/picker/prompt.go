package picker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PromptChooser lists files as a numbered menu and reads the choice from In.
// An empty line or "q" cancels.
type PromptChooser struct {
	In  io.Reader
	Out io.Writer
}

func (p *PromptChooser) Choose(ctx context.Context, files []PickedFile) (PickedFile, error) {
	if len(files) == 0 {
		return PickedFile{}, ErrCancelled
	}

	for i, f := range files {
		_, _ = fmt.Fprintf(p.Out, "%2d) %s (%s)\n", i+1, f.Name, f.MIMEType)
	}

	scanner := bufio.NewScanner(p.In)
	for {
		if err := ctx.Err(); err != nil {
			return PickedFile{}, err
		}
		_, _ = fmt.Fprintf(p.Out, "Select a file [1-%d, q to cancel]: ", len(files))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return PickedFile{}, err
			}
			return PickedFile{}, ErrCancelled
		}

		answer := strings.TrimSpace(scanner.Text())
		if answer == "" || strings.EqualFold(answer, "q") {
			return PickedFile{}, ErrCancelled
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(files) {
			_, _ = fmt.Fprintln(p.Out, "Invalid selection.")
			continue
		}
		return files[n-1], nil
	}
}
