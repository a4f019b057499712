package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseLayerString(t *testing.T) {
	tests := map[string]struct {
		layerStr   string
		wantShown  int
		wantTotal  int
		shouldFail bool
	}{
		"Will parse a single layer": {
			layerStr:  "[SDO,AIA,AIA,304,1,100]",
			wantShown: 1,
			wantTotal: 1,
		},
		"Will parse multiple layers": {
			layerStr:  "[SDO,AIA,AIA,304,1,100],[SOHO,LASCO,C2,white-light,1,60]",
			wantShown: 2,
			wantTotal: 2,
		},
		"Will not count hidden or transparent layers as shown": {
			layerStr:  "[SDO,AIA,AIA,304,0,100],[SDO,AIA,AIA,171,1,0],[SDO,AIA,AIA,193,1,100]",
			wantShown: 1,
			wantTotal: 3,
		},
		"Will parse an empty string into no layers": {
			layerStr: "",
		},
		"Will reject a descriptor with missing fields": {
			layerStr:   "[SDO,AIA,304,1,100]",
			shouldFail: true,
		},
		"Will reject a non-numeric opacity": {
			layerStr:   "[SDO,AIA,AIA,304,1,opaque]",
			shouldFail: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			layers, err := ParseLayerString(test.layerStr)
			if test.shouldFail {
				if err == nil {
					t.Errorf("expected %q to be rejected", test.layerStr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error received %v", err)
			}
			if len(layers) != test.wantTotal || layers.NumShown() != test.wantShown {
				t.Errorf("incorrect layers: %+v", layers)
			}
			if len(test.layerStr) > 0 && layers.String() != test.layerStr {
				t.Errorf("parse/format round trip changed the value: %s", layers.String())
			}
		})
	}
}

func TestLayerListJSON(t *testing.T) {
	layers := LayerList{
		{Observatory: "SDO", Instrument: "AIA", Detector: "AIA", Measurement: "304", Visible: true, Opacity: 100},
		{Observatory: "SOHO", Instrument: "LASCO", Detector: "C2", Measurement: "white-light", Visible: false, Opacity: 60},
	}
	encoded, err := json.Marshal(layers)
	if err != nil {
		t.Fatalf("Error encoding the layers: %v", err)
	}
	decoded := LayerList{}
	if err = json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Error decoding the layers: %v", err)
	}
	if decoded.String() != layers.String() {
		t.Errorf("incorrect round trip: %s", decoded.String())
	}
}

func TestMovieEntryStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fresh := &MovieEntry{Status: MovieStatus_Ready, DateRequested: now.Add(-10 * 24 * time.Hour)}
	if fresh.Stale(now, DefaultStaleMovieAge) {
		t.Errorf("a 10 day old ready movie is not stale")
	}
	aged := &MovieEntry{Status: MovieStatus_Ready, DateRequested: now.Add(-200 * 24 * time.Hour)}
	if !aged.Stale(now, DefaultStaleMovieAge) {
		t.Errorf("a 200 day old ready movie is stale")
	}
	erred := &MovieEntry{Status: MovieStatus_Error, DateRequested: now.Add(-200 * 24 * time.Hour)}
	if erred.Stale(now, DefaultStaleMovieAge) {
		t.Errorf("staleness only applies to ready movies")
	}
}

func TestMovieEntryRequest(t *testing.T) {
	frameRate := 15
	entry := &MovieEntry{
		Id:         "movie1",
		ImageScale: 2.42,
		Layers:     LayerList{{Observatory: "SDO", Instrument: "AIA", Detector: "AIA", Measurement: "304", Visible: true, Opacity: 100}},
		StartDate:  time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		X1:         -605, X2: 605, Y1: -605, Y2: 605,
		FrameRate: &frameRate,
	}
	request := entry.Request()
	if request.Region.X1 != entry.X1 || request.ImageScale != entry.ImageScale ||
		!request.StartTime.Equal(entry.StartDate) || request.Layers.String() != entry.Layers.String() {
		t.Errorf("incorrect reconstructed request: %+v", request)
	}
	if request.FrameRate == nil || *request.FrameRate != frameRate || request.MovieLength != nil {
		t.Errorf("the speed setting should carry over: %+v", request)
	}
}
