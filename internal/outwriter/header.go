package outwriter

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/huangsam/barrace/internal/contract"
	"github.com/huangsam/barrace/schema"
)

// LogRenderHeader prints a header describing the render about to start.
func LogRenderHeader(w io.Writer, cfg *contract.Config, ds schema.Dataset) {
	name := filepath.Base(cfg.DatasetPath)
	if name == "" || name == "." {
		name = "dataset"
	}
	lo, hi, _ := ds.Bounds()

	// Line 1: The dataset and the visible set
	_, _ = fmt.Fprintf(w, "%sDataset: %s (%d entities, top %d)\n",
		emojiPrefix(cfg, "🏎️"), name, len(ds.Entities), cfg.TopN)

	// Line 2: The timeline being animated
	_, _ = fmt.Fprintf(w, "%sRange: %s → %s (%d frames at %.0f fps)\n",
		emojiPrefix(cfg, "📅"), schema.FormatTimestamp(lo), schema.FormatTimestamp(hi), cfg.FrameCount(), cfg.FrameRate)
}

func emojiPrefix(cfg *contract.Config, emoji string) string {
	if cfg.UseEmojis {
		return emoji + " "
	}
	return ""
}
