package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Conversion level messages (info)
		"Starting conversion %s":                     "変換 %s を開始します",
		"Converting %s at %d fps (%d frames, %.2fs)": "%s / %d fps で変換中 (%d フレーム, %.2f 秒)",
		"Encoder: %s %s, level %s, %d kbps":          "エンコーダー: %s %s, レベル %s, %d kbps",
		"Conversion completed: %d frames, %d bytes":  "変換が完了しました: %d フレーム, %d バイト",
		"Conversion failed: %v":                      "変換に失敗しました: %v",
		"Conversion cancelled":                       "変換がキャンセルされました",
		"Output saved to %s":                         "出力を %s に保存しました",
		"Summary saved to %s":                        "サマリーを %s に保存しました",
		"Interrupted, shutting down...":              "中断されました。シャットダウン中...",
		"Debug output: %s":                           "デバッグ出力: %s",

		// Negotiation
		"%s encoder not available: %v":                                "%s エンコーダーは利用できません: %v",
		"%s encoder not available, falling back to %s":                "%s エンコーダーは利用できません。%s にフォールバックします",
		"Encoder probe failed, using baseline profile: %v":            "エンコーダーの確認に失敗しました。ベースラインプロファイルを使用します: %v",
		"High profile not supported at %s@%d, using baseline profile": "%s@%d ではハイプロファイルが使えません。ベースラインプロファイルを使用します",
		"Selected %s (%s, level %s, %d bps)":                          "%s を選択しました (%s, レベル %s, %d bps)",
		"Configuration %s %s@%s rejected: %v":                         "構成 %s %s@%s は拒否されました: %v",

		// Encoders
		"Using H.264 encoder %s":                  "H.264 エンコーダー %s を使用します",
		"H.264 encoder %s failed test encode: %v": "H.264 エンコーダー %s のテストエンコードに失敗しました: %v",
		"ffmpeg %v":                             "ffmpeg %v",
		"libaom initialized: %dx%d@%d, %d kbps": "libaom を初期化しました: %dx%d@%d, %d kbps",
		"Encoding %d frames at %d fps":          "%d フレームを %d fps でエンコード中",
		"Video encoded: %d bytes":               "動画エンコード完了: %d バイト",

		// Rasterizers
		"Launching browser: %s":                     "ブラウザを起動中: %s",
		"Browser closed":                            "ブラウザを閉じました",
		"Installing Playwright driver and Chromium": "Playwright ドライバーと Chromium をインストール中",
		"Chromium %s ready":                         "Chromium %s の準備ができました",
		"Screenshot is %dx%d, resizing to %s":       "スクリーンショットは %dx%d です。%s にリサイズします",
		"Raster is %dx%d, scaling to %s":            "ラスターは %dx%d です。%s に拡縮します",

		// Warnings
		"Failed to save debug SVG for frame %d: %v":          "フレーム %d のデバッグ SVG を保存できませんでした: %v",
		"Failed to save debug frame %d: %v":                  "フレーム %d のデバッグ画像を保存できませんでした: %v",
		"Failed to save debug data: %v":                      "デバッグデータを保存できませんでした: %v",
		"Failed to close rasterizer: %v":                     "ラスタライザーを閉じられませんでした: %v",
		"Only %d MB of memory available for a %s conversion": "%[2]s の変換に使えるメモリは %[1]d MB のみです",
	})
}
