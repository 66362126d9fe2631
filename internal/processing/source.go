package processing

import (
	"fmt"
	"strings"
)

type Source string

const (
	SourceReclameAqui  Source = "reclameaqui"
	SourceMercadoLivre Source = "mercadolivre"
	SourceUpload       Source = "upload"
)

const (
	reclameAquiDomain  = "reclameaqui.com.br"
	mercadoLivreDomain = "mercadolivre.com.br"
)

// DetectSource picks the adapter for a URL from the domain it mentions.
func DetectSource(rawURL string) (Source, error) {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	switch {
	case lower == "":
		return "", fmt.Errorf("%w: empty URL", ErrUnsupportedSource)
	case strings.Contains(lower, mercadoLivreDomain):
		return SourceMercadoLivre, nil
	case strings.Contains(lower, reclameAquiDomain):
		return SourceReclameAqui, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, rawURL)
	}
}
