// Package lottietest provides small animation documents for tests.
package lottietest

import "github.com/user/lottiemp4/pkg/lottie"

// SquareJSON is a 200x100, two second animation at 30 fps of a red 20x20
// square sliding from x=50 to x=150 during the first second.
const SquareJSON = `{
  "v": "5.7.4", "fr": 30, "ip": 0, "op": 60, "w": 200, "h": 100, "nm": "square",
  "layers": [
    {
      "ty": 4, "nm": "box", "ind": 1, "ip": 0, "op": 60, "st": 0,
      "ks": {
        "a": {"a": 0, "k": [0, 0]},
        "p": {"a": 1, "k": [
          {"t": 0, "s": [50, 50], "o": {"x": 0, "y": 0}, "i": {"x": 1, "y": 1}},
          {"t": 30, "s": [150, 50]}
        ]},
        "s": {"a": 0, "k": [100, 100]},
        "r": {"a": 0, "k": 0},
        "o": {"a": 0, "k": 100}
      },
      "shapes": [
        {"ty": "gr", "nm": "g", "it": [
          {"ty": "rc", "p": {"a": 0, "k": [0, 0]}, "s": {"a": 0, "k": [20, 20]}, "r": {"a": 0, "k": 0}},
          {"ty": "fl", "c": {"a": 0, "k": [1, 0, 0, 1]}, "o": {"a": 0, "k": 100}, "r": 1},
          {"ty": "tr", "p": {"a": 0, "k": [0, 0]}, "a": {"a": 0, "k": [0, 0]}, "s": {"a": 0, "k": [100, 100]}, "r": {"a": 0, "k": 0}, "o": {"a": 0, "k": 100}}
        ]}
      ]
    }
  ]
}`

// EmptyJSON has a valid range but no renderable layer.
const EmptyJSON = `{"v":"5.7.4","fr":30,"ip":0,"op":30,"w":64,"h":64,"layers":[{"ty":3,"ip":0,"op":30}]}`

// Doc builds a document with the given range and a full-frame solid layer.
func Doc(frameRate, inPoint, outPoint float64) *lottie.Document {
	return &lottie.Document{
		Version:   "5.7.4",
		FrameRate: frameRate,
		InPoint:   inPoint,
		OutPoint:  outPoint,
		Width:     64,
		Height:    64,
		Layers: []lottie.Layer{{
			Type:        lottie.LayerSolid,
			InPoint:     inPoint,
			OutPoint:    outPoint,
			Stretch:     1,
			SolidColor:  "#3366ff",
			SolidWidth:  64,
			SolidHeight: 64,
		}},
	}
}

// Square parses SquareJSON.
func Square() *lottie.Document {
	return mustParse(SquareJSON)
}

// Empty parses EmptyJSON.
func Empty() *lottie.Document {
	return mustParse(EmptyJSON)
}

func mustParse(s string) *lottie.Document {
	doc, err := lottie.Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return doc
}
