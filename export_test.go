package stage

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func mustDecodePNG(t *testing.T, blob []byte) *Pixmap {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	return FromImage(img)
}

func TestExportSolidScene(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	s := testScene(80, 60)
	s.Background.Value = "#336699"

	res, err := st.Export(s, WithAspect("4:3"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 2400 || res.Height != 1800 {
		t.Errorf("dimensions = %dx%d, want 2400x1800", res.Width, res.Height)
	}
	if !strings.HasPrefix(res.DataURL, "data:image/png;base64,") {
		t.Errorf("DataURL prefix = %q", res.DataURL[:min(len(res.DataURL), 30)])
	}
	if !strings.HasPrefix(res.FileName, "stage-") || !strings.HasSuffix(res.FileName, ".png") {
		t.Errorf("FileName = %q", res.FileName)
	}

	img, err := png.Decode(bytes.NewReader(res.Blob))
	if err != nil {
		t.Fatalf("blob is not a valid PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != res.Width || b.Dy() != res.Height {
		t.Errorf("decoded size = %dx%d, want %dx%d", b.Dx(), b.Dy(), res.Width, res.Height)
	}
}

func TestExportAutoAspect(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	res, err := st.Export(testScene(80, 60))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 2400 || res.Height != 1800 {
		t.Errorf("auto dimensions = %dx%d, want 2400x1800", res.Width, res.Height)
	}
}

func TestExportNoSurface(t *testing.T) {
	st := New()
	if _, err := st.Export(testScene(80, 60)); !errors.Is(err, ErrNoSurface) {
		t.Errorf("err = %v, want ErrNoSurface", err)
	}
}

func TestExportNoSubject(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	if _, err := st.Export(nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("nil scene: err = %v, want ErrNoTarget", err)
	}
	if _, err := st.Export(NewScene(80, 60)); !errors.Is(err, ErrNoTarget) {
		t.Errorf("no subject: err = %v, want ErrNoTarget", err)
	}
}

func TestExportInvalidAspect(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	if _, err := st.Export(testScene(80, 60), WithAspect("5:7")); !errors.Is(err, ErrInvalidAspect) {
		t.Errorf("err = %v, want ErrInvalidAspect", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	if _, err := st.Export(testScene(80, 60), WithFormat("jpeg")); !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("err = %v, want ErrEncodeFailed", err)
	}
}

func TestExportInFlight(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(800, 600))
	st.exporting = true

	if _, err := st.Export(testScene(80, 60)); !errors.Is(err, ErrExportInFlight) {
		t.Errorf("err = %v, want ErrExportInFlight", err)
	}

	st.exporting = false
	if _, err := st.Export(testScene(80, 60)); err != nil {
		t.Errorf("after release: %v", err)
	}
}

func TestExportPersistsToStore(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := New()
	st.BindSurface(NewSurface(800, 600))
	st.SetStore(store)

	res, err := st.Export(testScene(80, 60), WithQuality(0.9), WithScale(1))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	recs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Format != "png" || recs[0].Quality != 0.9 {
		t.Errorf("record = %+v", recs[0])
	}
	if recs[0].FileName != res.FileName {
		t.Errorf("record file name = %q, want %q", recs[0].FileName, res.FileName)
	}
}

func TestExportAnalytics(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(2000, 1500))

	var got []ExportEvent
	st.SetAnalytics(func(ev ExportEvent) { got = append(got, ev) })

	if _, err := st.Export(testScene(80, 60), WithAspect("1:1"), WithScale(2)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(got))
	}
	if got[0].Aspect != "1:1" || got[0].Scale != 2 || got[0].Format != "png" {
		t.Errorf("event = %+v", got[0])
	}
}

func TestExportPanickingSinkSwallowed(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(800, 600))
	st.SetAnalytics(func(ExportEvent) { panic("sink blew up") })

	if _, err := st.Export(testScene(80, 60)); err != nil {
		t.Errorf("export failed because of the sink: %v", err)
	}
	if st.exporting {
		t.Error("exporting flag stuck after panic in sink")
	}
}

func TestExportWithPerspective(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(800, 600))

	s := testScene(80, 60)
	s.Perspective.RotateY = 30

	res, err := st.Export(s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	pm := FromImage(mustDecodePNG(t, res.Blob))

	// The projected subject still lands around the canvas center.
	c := pm.GetPixel(pm.Width()/2, pm.Height()/2)
	if c.A < 0.9 || c.B < 0.5 {
		t.Errorf("center pixel = %+v, want opaque blue subject", c)
	}
}

func TestProjectedSubjectFollowsRotation(t *testing.T) {
	s := NewScene(200, 150)
	subject := NewPixmap(40, 20)
	subject.Clear(Blue)
	s.Subject.Image = subject
	s.Subject.Rotation = 90

	pm := NewPixmap(200, 150)
	if err := pasteProjectedSubject(pm, s, 1); err != nil {
		t.Fatal(err)
	}
	// A quarter turn about the subject center swaps the footprint axes:
	// 40x20 centered at (100,75) becomes x in [90,110], y in [55,95].
	if p := pm.GetPixel(100, 90); p.B < 0.9 || p.A < 0.9 {
		t.Errorf("pixel inside rotated footprint = %+v, want blue", p)
	}
	if p := pm.GetPixel(118, 75); p.A > 0.1 {
		t.Errorf("pixel outside rotated footprint = %+v, want transparent", p)
	}
}

func TestExportDegradedPerspective(t *testing.T) {
	st := New()
	st.BindSurface(NewSurface(80, 60))

	// A corner swings behind the camera, so projection fails and the
	// export ships the flat stack without the subject.
	s := testScene(80, 60)
	s.Perspective.RotateY = 80
	s.Perspective.Distance = 10

	res, err := st.Export(s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Width != 2400 || res.Height != 1800 {
		t.Errorf("dimensions = %dx%d, want 2400x1800", res.Width, res.Height)
	}
	pm := FromImage(mustDecodePNG(t, res.Blob))
	c := pm.GetPixel(pm.Width()/2, pm.Height()/2)
	if c.B > 0.9 && c.R < 0.1 {
		t.Errorf("center pixel = %+v, want background without the blue subject", c)
	}
}

func TestAspectDimensions(t *testing.T) {
	cases := []struct {
		aspect string
		sceneW int
		sceneH int
		w, h   int
	}{
		{"auto", 80, 60, 2400, 1800},
		{"auto", 60, 80, 1800, 2400},
		{"1:1", 80, 60, 2000, 2000},
		{"4:3", 80, 60, 2400, 1800},
		{"3:2", 80, 60, 2400, 1600},
		{"16:9", 80, 60, 2560, 1440},
		{"9:16", 80, 60, 1440, 2560},
		{"4:5", 80, 60, 1600, 2000},
		{"1.91:1", 80, 60, 2292, 1200},
	}
	for _, tc := range cases {
		w, h, err := aspectDimensions(tc.aspect, NewScene(tc.sceneW, tc.sceneH))
		if err != nil {
			t.Errorf("%s: %v", tc.aspect, err)
			continue
		}
		if w != tc.w || h != tc.h {
			t.Errorf("%s: got %dx%d, want %dx%d", tc.aspect, w, h, tc.w, tc.h)
		}
	}

	if _, _, err := aspectDimensions("2:1", NewScene(80, 60)); !errors.Is(err, ErrInvalidAspect) {
		t.Errorf("unknown preset: err = %v, want ErrInvalidAspect", err)
	}
	if _, _, err := aspectDimensions("auto", NewScene(0, 0)); !errors.Is(err, ErrInvalidAspect) {
		t.Errorf("auto with empty canvas: err = %v, want ErrInvalidAspect", err)
	}
}

func TestCopyToClipboard(t *testing.T) {
	if err := CopyToClipboard([]byte("png")); !errors.Is(err, ErrClipboardUnsupported) {
		t.Errorf("err = %v, want ErrClipboardUnsupported", err)
	}
}
