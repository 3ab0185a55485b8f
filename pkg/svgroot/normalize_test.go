package svgroot

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootAttrs(t *testing.T, svg []byte) map[string]string {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(string(svg)))
	for {
		tok, err := dec.RawToken()
		require.NoError(t, err)
		if se, ok := tok.(xml.StartElement); ok {
			attrs := make(map[string]string)
			for _, a := range se.Attr {
				attrs[qualifiedName(a.Name)] = a.Value
			}
			return attrs
		}
	}
}

func TestNormalize_AddsMissingAttributes(t *testing.T) {
	in := []byte(`<svg><rect width="10" height="10"/></svg>`)

	out, err := Normalize(in, 1920, 1080)
	require.NoError(t, err)

	attrs := rootAttrs(t, out)
	assert.Equal(t, Namespace, attrs["xmlns"])
	assert.Equal(t, "1920", attrs["width"])
	assert.Equal(t, "1080", attrs["height"])
	assert.Equal(t, "0 0 1920 1080", attrs["viewBox"])
	assert.True(t, strings.HasSuffix(string(out), `<rect width="10" height="10"/></svg>`))
}

func TestNormalize_ReplacesPercentSizes(t *testing.T) {
	in := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="100%" height="100%" viewBox="0 0 1920 1080"><g/></svg>`)

	out, err := Normalize(in, 1280, 720)
	require.NoError(t, err)

	attrs := rootAttrs(t, out)
	assert.Equal(t, "1280", attrs["width"])
	assert.Equal(t, "720", attrs["height"])
	assert.Equal(t, "0 0 1920 1080", attrs["viewBox"])
	assert.Equal(t, 1, strings.Count(string(out), "xmlns="))
}

func TestNormalize_DerivesViewBoxFromPixelSize(t *testing.T) {
	in := []byte(`<svg width="640px" height="360"></svg>`)

	out, err := Normalize(in, 1280, 720)
	require.NoError(t, err)
	assert.Equal(t, "0 0 640 360", rootAttrs(t, out)["viewBox"])
}

func TestNormalize_LetterboxesSquareContent(t *testing.T) {
	in := []byte(`<svg viewBox="0 0 500 500"></svg>`)

	out, err := Normalize(in, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, "-250 0 1000 500", rootAttrs(t, out)["viewBox"])
}

func TestNormalize_PreserveAspectRatioNone(t *testing.T) {
	in := []byte(`<svg viewBox="0 0 500 500" preserveAspectRatio="none"></svg>`)

	out, err := Normalize(in, 1000, 500)
	require.NoError(t, err)

	attrs := rootAttrs(t, out)
	assert.Equal(t, "0 0 500 500", attrs["viewBox"])
	assert.Equal(t, "none", attrs["preserveAspectRatio"])
}

func TestNormalize_KeepsOtherAttributesAndProlog(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<!-- generated -->
<svg xmlns:xlink="http://www.w3.org/1999/xlink" id="scene" style="background:&quot;x&quot;"><use xlink:href="#a"/></svg>`)

	out, err := Normalize(in, 100, 100)
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "<?xml version=\"1.0\"?>\n<!-- generated -->\n<svg "))
	attrs := rootAttrs(t, out)
	assert.Equal(t, "http://www.w3.org/1999/xlink", attrs["xmlns:xlink"])
	assert.Equal(t, "scene", attrs["id"])
	assert.Equal(t, `background:"x"`, attrs["style"])
	assert.Contains(t, s, `<use xlink:href="#a"/></svg>`)
}

func TestNormalize_SelfClosingRoot(t *testing.T) {
	out, err := Normalize([]byte(`<svg/>`), 20, 10)
	require.NoError(t, err)
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10"/>`, string(out))
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []byte(`<svg viewBox="0 0 300 100"><circle r="5"/></svg>`)

	once, err := Normalize(in, 1920, 1080)
	require.NoError(t, err)
	twice, err := Normalize(once, 1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize([]byte(`<html></html>`), 10, 10)
	assert.ErrorIs(t, err, ErrNoSVGRoot)

	_, err = Normalize([]byte(``), 10, 10)
	assert.ErrorIs(t, err, ErrNoSVGRoot)

	_, err = Normalize([]byte(`<svg/>`), 0, 10)
	assert.Error(t, err)
}

func TestFitViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   ViewBox
		w, h int
		want ViewBox
	}{
		{"same aspect", ViewBox{0, 0, 1920, 1080}, 1280, 720, ViewBox{0, 0, 1920, 1080}},
		{"too narrow", ViewBox{0, 0, 100, 100}, 200, 100, ViewBox{-50, 0, 200, 100}},
		{"too wide", ViewBox{0, 0, 200, 100}, 100, 100, ViewBox{0, -50, 200, 200}},
		{"degenerate", ViewBox{0, 0, 0, 0}, 64, 32, ViewBox{0, 0, 64, 32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FitViewBox(tt.in, tt.w, tt.h))
		})
	}
}
