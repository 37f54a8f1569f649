package provider

import (
	"context"
	"sort"
	"strings"

	"roomchat/internal/chat"
)

// Models lists model ids newest first. Any failure, or an empty listing,
// yields the static fallback list; the error is returned for logging only.
func Models(ctx context.Context, p Provider, apiKey string) ([]string, error) {
	infos, err := p.ListModels(ctx, apiKey)
	if err != nil {
		return chat.FallbackModels(), err
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Created > infos[j].Created
	})
	ids := make([]string, 0, len(infos))
	for _, m := range infos {
		if id := strings.TrimSpace(m.ID); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return chat.FallbackModels(), nil
	}
	return ids, nil
}
