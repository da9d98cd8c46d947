package browse

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/charlieegan3/exiflab/pkg/objects"
)

func humanizeBytes(bytes int64) string {
	suffixes := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

	base := 1024.0
	if bytes <= 0 {
		return fmt.Sprintf("0%s", suffixes[0])
	}

	exp := math.Floor(math.Log(float64(bytes)) / math.Log(base))
	index := int(math.Min(exp, float64(len(suffixes)-1)))
	value := float64(bytes) / math.Pow(base, float64(index))

	if value > 10 {
		return fmt.Sprintf("%.0f%s", value, suffixes[index])
	}

	return fmt.Sprintf("%.1f%s", value, suffixes[index])
}

// linkFor classifies a stored key and returns the route it can be fetched from.
// The source is not served back.
func linkFor(key string) (kind, link string) {
	name := path.Base(key)

	switch {
	case strings.HasPrefix(key, "meta/"):
		return "metadata", "/session/meta/" + name
	case name == objects.OutputName:
		return "output", "/session/download"
	case name == objects.SourceName:
		return "source", ""
	}

	return "other", ""
}
