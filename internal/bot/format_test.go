package bot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatNotification(t *testing.T) {
	got := FormatNotification("Gopher Academy", "https://www.youtube.com/watch?v=vid-3")
	want := "Gopher Academy published a new video:\nhttps://www.youtube.com/watch?v=vid-3"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatSubscriptionList(t *testing.T) {
	got := FormatSubscriptionList([]string{"Zebra Films", "Gopher Academy"})
	want := "Subscribed channels:\n- Gopher Academy\n- Zebra Films"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}
