package platform

import (
	"context"
	"net/http"
)

// snapshotEndpoints maps snapshot section names to the read endpoints that
// populate them. The snapshot gives the reasoning service the current state of
// the organisation before it plans any changes.
var snapshotEndpoints = []struct {
	Section string
	Path    string
}{
	{"locationTypes", "/addressLevelType"},
	{"locations", "/locations"},
	{"catchments", "/catchment"},
	{"subjectTypes", "/web/subjectType"},
	{"programs", "/web/program"},
	{"encounterTypes", "/web/encounterType"},
}

// FetchSnapshot reads the current organisation configuration. Any failing
// endpoint fails the whole snapshot; realizing a document against a partial
// view of the existing state risks duplicate or conflicting entities.
func (c *Client) FetchSnapshot(ctx context.Context, authToken string) (map[string]any, error) {
	snapshot := make(map[string]any, len(snapshotEndpoints))
	for _, ep := range snapshotEndpoints {
		data, err := c.Call(ctx, http.MethodGet, ep.Path, authToken, nil)
		if err != nil {
			return nil, err
		}
		snapshot[ep.Section] = data
	}
	return snapshot, nil
}
