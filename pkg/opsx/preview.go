package opsx

import (
	"context"
	"unicode/utf8"

	"github.com/Abraxas-365/slotx/pkg/fsx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
)

// PreviewArgs names the file or directory to preview.
type PreviewArgs struct {
	Path    string `json:"path"`
	DelayMS int    `json:"delay_ms,omitempty"`
}

// PreviewResult holds either the head of a file or a directory listing.
type PreviewResult struct {
	Info      fsx.FileInfo   `json:"info"`
	Content   string         `json:"content,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
	Entries   []fsx.FileInfo `json:"entries,omitempty"`
}

// Preview returns an operation that reads through fs. Only the head of a file
// is fetched and its content is cut to at most limit bytes without splitting a UTF-8 sequence; limit <= 0 means no
// cut.
func Preview(fs fsx.FileReader, limit int) slotx.Operation[PreviewArgs, PreviewResult] {
	return func(ctx context.Context, args PreviewArgs) (PreviewResult, error) {
		d, err := delayOf(args.DelayMS)
		if err != nil {
			return PreviewResult{}, err
		}
		if err := sleep(ctx, d); err != nil {
			return PreviewResult{}, err
		}

		info, err := fs.Stat(ctx, args.Path)
		if err != nil {
			return PreviewResult{}, err
		}

		if info.IsDir {
			entries, err := fs.List(ctx, args.Path)
			if err != nil {
				return PreviewResult{}, err
			}
			return PreviewResult{Info: info, Entries: entries}, nil
		}

		// One byte past the limit is enough to tell whether the file was cut.
		var n int64
		if limit > 0 {
			n = int64(limit) + 1
		}
		data, err := fs.ReadHead(ctx, args.Path, n)
		if err != nil {
			return PreviewResult{}, err
		}

		content, truncated := truncate(data, limit)
		return PreviewResult{Info: info, Content: content, Truncated: truncated}, nil
	}
}

func truncate(data []byte, limit int) (string, bool) {
	if limit <= 0 || len(data) <= limit {
		return string(data), false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut]), true
}
