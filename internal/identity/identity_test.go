package identity

import (
	"testing"

	"arrmate/internal/services/arr"
)

func TestForItemPrefersDownloadID(t *testing.T) {
	item := arr.QueueItem{
		Origin:     arr.OriginRadarr,
		DownloadID: "abc123def",
		Title:      "Some Movie 2024",
	}
	if got := ForItem(item); got != Identity("radarr:abc123def") {
		t.Fatalf("identity = %q", got)
	}
}

func TestForItemStableAcrossIDReuse(t *testing.T) {
	first := arr.QueueItem{ID: 10, Origin: arr.OriginSonarr, Title: "Show.S01E02.1080p", Protocol: "torrent"}
	second := arr.QueueItem{ID: 99, Origin: arr.OriginSonarr, Title: "show s01e02 1080p", Protocol: "Torrent"}

	if ForItem(first) != ForItem(second) {
		t.Fatalf("identities differ: %q vs %q", ForItem(first), ForItem(second))
	}
}

func TestForItemDistinguishesOrigins(t *testing.T) {
	radarr := arr.QueueItem{Origin: arr.OriginRadarr, Title: "Same Title"}
	sonarr := arr.QueueItem{Origin: arr.OriginSonarr, Title: "Same Title"}
	if ForItem(radarr) == ForItem(sonarr) {
		t.Fatal("identities should differ per origin")
	}
}

func TestOrigin(t *testing.T) {
	item := arr.QueueItem{Origin: arr.OriginRadarr, Title: "Anything"}
	if got := ForItem(item).Origin(); got != "radarr" {
		t.Fatalf("origin = %q", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Some.Movie-2024_1080p", "some movie 2024 1080p"},
		{"  Spaced   Out  ", "spaced out"},
		{"Ünïcode Títle", "ünïcode títle"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
