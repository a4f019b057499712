package services

import (
	"context"
	"testing"

	"github.com/Helioviewer-Project/go-movies/models"
)

func TestImport(t *testing.T) {
	apiClient := &FakeMovieApi{statusResps: []*models.MovieStatusResponse{{
		Status:     intPtr(int(models.MovieStatus_Ready)),
		Url:        "https://example.com/shared.mp4",
		Duration:   20,
		NumFrames:  300,
		Width:      1024,
		Height:     768,
		Thumbnail:  models.Thumbnails{Small: "https://example.com/shared_small.png"},
		Timestamp:  "2024-03-01T12:00:00Z",
		StartDate:  "2024-03-01T11:00:00Z",
		EndDate:    "2024-03-01T12:00:00Z",
		ImageScale: 4.84,
		Layers:     "[SDO,AIA,AIA,304,1,100]",
		X1:         -605,
		X2:         605,
		Y1:         -605,
		Y2:         605,
		FrameRate:  15,
	}}}
	registry := NewRegistryService(&FakeHistoryRepository{}, NewFakeMetricService(), &FakeLogger{})
	importer := NewImportService(apiClient, registry, NewFakeMetricService(), &FakeLogger{})

	entry, err := importer.Import(context.Background(), "shared1")
	if err != nil {
		t.Fatalf("Unexpected error received %v", err)
	}
	if entry.Id != "shared1" || entry.Status != models.MovieStatus_Ready {
		t.Errorf("incorrect imported entry: %+v", entry)
	}
	if entry.Url != "https://example.com/shared.mp4" || entry.Width != 1024 || len(entry.Layers) != 1 {
		t.Errorf("the verbose fields should populate the entry: %+v", entry)
	}
	if entry.DateRequested.IsZero() || entry.StartDate.IsZero() {
		t.Errorf("the timestamps should have been parsed: %+v", entry)
	}
	if _, found := registry.Get("shared1"); !found {
		t.Errorf("the imported movie should be in the history")
	}
}

func TestImportRejections(t *testing.T) {
	tests := map[string]struct {
		statusResp *models.MovieStatusResponse
	}{
		"Will reject a failed movie": {
			statusResp: &models.MovieStatusResponse{Status: intPtr(int(models.MovieStatus_Error)), Error: "render failed"},
		},
		"Will reject a movie that is still processing": {
			statusResp: &models.MovieStatusResponse{Eta: 30},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			apiClient := &FakeMovieApi{statusResps: []*models.MovieStatusResponse{test.statusResp}}
			registry := NewRegistryService(&FakeHistoryRepository{}, NewFakeMetricService(), &FakeLogger{})
			importer := NewImportService(apiClient, registry, NewFakeMetricService(), &FakeLogger{})

			if _, err := importer.Import(context.Background(), "shared1"); err == nil {
				t.Fatalf("expected the import to be rejected")
			}
			if registry.Size() != 0 {
				t.Errorf("nothing should have been added to the history")
			}
		})
	}
}
