// Package main provides localization for the lottiemp4 CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":        "出力先",
		"Video":         "動画",
		"Rendering":     "レンダリング",
		"Configuration": "設定ファイル",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Convert Lottie animations to MP4 video": "LottieアニメーションをMP4動画に変換",
		"lottiemp4 renders every frame of a Lottie animation and encodes it as H.264 or AV1 in an MP4 container.": "lottiemp4はLottieアニメーションの全フレームを描画し、H.264またはAV1でMP4コンテナにエンコードします。",
		"lottiemp4 version %s": "lottiemp4 バージョン %s",

		// Commands
		"Convert a Lottie JSON file to MP4":                       "Lottie JSONファイルをMP4に変換",
		"Show the video track of an MP4 file":                     "MP4ファイルの映像トラックを表示",
		"Check which encoder configuration this machine supports": "このマシンで使えるエンコーダー構成を確認",

		// Flags
		"Output MP4 file path (required)":                     "出力MP4ファイルパス（必須）",
		"Output conversion summary to file (Markdown format)": "変換サマリーをファイルに出力（Markdown形式）",
		"Output resolution (hd, fhd, uhd)":                    "出力解像度（hd, fhd, uhd）",
		"Output frame rate (30, 60, 120)":                     "出力フレームレート（30, 60, 120）",
		"Preferred codec (h264, av1)":                         "優先コーデック（h264, av1）",
		"Background color (hex, e.g., #ffffff)":               "背景色（16進数、例: #ffffff）",
		"Path to ffmpeg executable":                           "ffmpeg実行ファイルのパス",
		"Rasterizer backend (svg, chrome, playwright)":        "ラスタライザー（svg, chrome, playwright）",
		"Path to Chrome executable":                           "Chrome実行ファイルのパス",
		"Download Playwright browsers when missing":           "Playwrightのブラウザがなければダウンロード",
		"YAML configuration file":                             "YAML設定ファイル",
		"Enable debug output":                                 "デバッグ出力を有効化",
		"Directory for debug output":                          "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":                "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                             "全てのログ出力を抑制",

		// Runtime messages
		"Error: %v":                            "エラー: %v",
		"exactly one input file is required":   "入力ファイルを1つ指定してください",
		"Failed to write summary: %v":          "サマリーの書き込みに失敗しました: %v",
		"%s is not available, %s will be used": "%s は利用できないため %s を使用します",

		// Hints
		"Install ffmpeg with an H.264 encoder (libx264) or build with the libaom tag for AV1.":          "H.264エンコーダー（libx264）付きのffmpegをインストールするか、AV1用にlibaomタグでビルドしてください。",
		"The video encoder failed. Try a lower resolution or frame rate.":                               "動画エンコーダーが失敗しました。解像度かフレームレートを下げてください。",
		"Your platform may not support this video configuration. Try a lower resolution or frame rate.": "このプラットフォームはこの動画構成に対応していない可能性があります。解像度かフレームレートを下げてください。",

		// Progress
		"Preparing":  "準備中",
		"Finalizing": "仕上げ中",
		"Done":       "完了",

		// Probe and inspect output
		"Host":         "ホスト",
		"CPU":          "CPU",
		"AV1 (libaom)": "AV1 (libaom)",
		"Request":      "要求",
		"level":        "レベル",
		"Samples":      "サンプル数",
		"Fragments":    "フラグメント数",

		// Summary content
		"Conversion Summary": "変換サマリー",
		"Source":             "入力",
		"File":               "ファイル",
		"Canvas":             "キャンバス",
		"Frame Rate":         "フレームレート",
		"Frame Range":        "フレーム範囲",
		"Duration":           "再生時間",
		"Settings":           "設定",
		"Resolution":         "解像度",
		"Requested Codec":    "要求コーデック",
		"Rasterizer":         "ラスタライザー",
		"Background":         "背景色",
		"Encoder":            "エンコーダー",
		"Codec":              "コーデック",
		"Codec String":       "コーデック文字列",
		"Profile":            "プロファイル",
		"Level":              "レベル",
		"Bitrate":            "ビットレート",
		"Implementation":     "実装",
		"fallback":           "フォールバック",
		"Dimensions":         "サイズ",
		"Frames":             "フレーム数",
		"Keyframes":          "キーフレーム",
		"File Size":          "ファイルサイズ",
		"Platform":           "プラットフォーム",
		"CPUs":               "CPU数",
		"Available Memory":   "空きメモリ",
		"Generated at":       "生成日時",
		"Elapsed":            "所要時間",
		"Item":               "項目",
		"Value":              "値",
	})
}
