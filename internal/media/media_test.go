package media

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/imaging"
)

func TestInlinePut(t *testing.T) {
	url, err := Inline{}.Put(context.Background(), "i1", []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	mime, data, err := imaging.DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if mime != "image/jpeg" || len(data) != 3 {
		t.Errorf("unexpected round trip: %s, %d bytes", mime, len(data))
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Unix(0, 42)
	if got := objectKey("photos", "abc", at); got != "photos/items/abc/42.jpg" {
		t.Errorf("unexpected key %q", got)
	}
	if got := objectKey("", "abc", at); got != "items/abc/42.jpg" {
		t.Errorf("unexpected key %q", got)
	}
}
