//go:build libaom && cgo

// Package av1encoder provides an AV1 video encoder using libaom.
package av1encoder

/*
#cgo !windows pkg-config: aom
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -laom -static -lpthread
#include <aom/aom_encoder.h>
#include <aom/aomcx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_interface() {
    return aom_codec_av1_cx();
}

static aom_codec_err_t init_encoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface,
                                     aom_codec_enc_cfg_t *cfg, aom_codec_flags_t flags) {
    return aom_codec_enc_init_ver(ctx, iface, cfg, flags, AOM_ENCODER_ABI_VERSION);
}

static int is_frame_packet(const aom_codec_cx_pkt_t *pkt) {
    return pkt->kind == AOM_CODEC_CX_FRAME_PKT;
}

static void* get_frame_buf(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.buf;
}

static size_t get_frame_sz(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.sz;
}

static int is_keyframe(const aom_codec_cx_pkt_t *pkt) {
    return (pkt->data.frame.flags & AOM_FRAME_IS_KEY) != 0;
}

static aom_codec_pts_t get_frame_pts(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.pts;
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_plane_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

// aom_codec_control is a variadic macro
static aom_codec_err_t set_cpu_used(aom_codec_ctx_t *ctx, int value) {
    return aom_codec_control(ctx, AOME_SET_CPUUSED, value);
}

static const char* last_error(aom_codec_ctx_t *ctx) {
    const char *detail = aom_codec_error_detail(ctx);
    return detail ? detail : aom_codec_error(ctx);
}
*/
import "C"

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"
	"unsafe"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Supported reports whether this build can encode AV1.
const Supported = true

// Encoder implements ports.VideoEncoder using libaom.
// The time base is one microsecond, so presentation timestamps pass through unchanged.
type Encoder struct {
	mu  sync.Mutex
	log ports.Logger

	codec    *C.aom_codec_ctx_t
	cfg      *C.aom_codec_enc_cfg_t
	rawFrame *C.aom_image_t

	config   pipeline.EncoderConfig
	scratch  *image.RGBA
	frameDur int64
}

// New creates a new AV1 encoder.
func New(log ports.Logger) *Encoder {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Encoder{log: log.WithComponent("av1encoder")}
}

// Begin initializes libaom in realtime mode.
func (e *Encoder) Begin(ctx context.Context, cfg pipeline.EncoderConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec != nil {
		return fmt.Errorf("%w: already running", ErrEncodingFailed)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return fmt.Errorf("%w: invalid config %dx%d@%d", ErrEncodingFailed, cfg.Width, cfg.Height, cfg.FPS)
	}
	e.config = cfg
	e.frameDur = int64(math.Round(1_000_000 / float64(cfg.FPS)))

	e.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if e.codec == nil {
		return fmt.Errorf("failed to allocate codec context")
	}
	C.memset(unsafe.Pointer(e.codec), 0, C.sizeof_aom_codec_ctx_t)

	e.cfg = (*C.aom_codec_enc_cfg_t)(C.malloc(C.sizeof_aom_codec_enc_cfg_t))
	if e.cfg == nil {
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
		return fmt.Errorf("failed to allocate encoder config")
	}

	iface := C.get_av1_interface()
	if res := C.aom_codec_enc_config_default(iface, e.cfg, C.AOM_USAGE_REALTIME); res != C.AOM_CODEC_OK {
		e.release(false)
		return fmt.Errorf("%w: default config: %d", ErrEncodingFailed, res)
	}

	gop := cfg.KeyframeInterval
	if gop <= 0 {
		gop = cfg.FPS * 2
	}
	e.cfg.g_w = C.uint(cfg.Width)
	e.cfg.g_h = C.uint(cfg.Height)
	e.cfg.g_timebase.num = 1
	e.cfg.g_timebase.den = 1_000_000
	e.cfg.g_error_resilient = 0
	e.cfg.g_threads = 4
	e.cfg.g_lag_in_frames = 0
	e.cfg.g_usage = C.AOM_USAGE_REALTIME
	e.cfg.rc_end_usage = C.AOM_VBR
	e.cfg.kf_mode = C.AOM_KF_AUTO
	e.cfg.kf_min_dist = C.uint(gop)
	e.cfg.kf_max_dist = C.uint(gop)
	if cfg.Bitrate > 0 {
		e.cfg.rc_target_bitrate = C.uint(cfg.Bitrate / 1000)
	} else {
		e.cfg.rc_target_bitrate = C.uint(cfg.Width * cfg.Height / 1000)
	}

	if res := C.init_encoder(e.codec, iface, e.cfg, 0); res != C.AOM_CODEC_OK {
		e.release(false)
		return fmt.Errorf("%w: init: %d", ErrEncodingFailed, res)
	}

	// 0 = slowest/best, 10 = fastest
	C.set_cpu_used(e.codec, 8)

	e.rawFrame = (*C.aom_image_t)(C.malloc(C.sizeof_aom_image_t))
	if e.rawFrame == nil {
		e.release(true)
		return fmt.Errorf("failed to allocate raw frame")
	}
	if C.aom_img_alloc(e.rawFrame, C.AOM_IMG_FMT_I420, C.uint(cfg.Width), C.uint(cfg.Height), 32) == nil {
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
		e.release(true)
		return fmt.Errorf("failed to allocate image buffer")
	}

	e.log.Debug("libaom initialized: %dx%d@%d, %d kbps", cfg.Width, cfg.Height, cfg.FPS, int(e.cfg.rc_target_bitrate))
	return nil
}

// EncodeFrame encodes one frame. With zero lag the frame's temporal unit is
// normally returned by the same call.
func (e *Encoder) EncodeFrame(img image.Image, timestampUs int64, keyframe bool) ([]pipeline.EncodedChunk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return nil, ErrNotInitialized
	}
	b := img.Bounds()
	if b.Dx() != e.config.Width || b.Dy() != e.config.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), e.config.Width, e.config.Height)
	}

	e.rgbaToI420(e.toRGBA(img))

	flags := C.aom_enc_frame_flags_t(0)
	if keyframe {
		flags = C.AOM_EFLAG_FORCE_KF
	}
	if res := C.aom_codec_encode(e.codec, e.rawFrame, C.aom_codec_pts_t(timestampUs), C.ulong(e.frameDur), flags); res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: %s", ErrEncodingFailed, C.GoString(C.last_error(e.codec)))
	}
	return e.drain(), nil
}

// Flush signals end of stream and returns the remaining temporal units.
func (e *Encoder) Flush() ([]pipeline.EncodedChunk, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return nil, ErrNotInitialized
	}
	if res := C.aom_codec_encode(e.codec, nil, 0, 0, 0); res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: flush: %s", ErrEncodingFailed, C.GoString(C.last_error(e.codec)))
	}
	chunks := e.drain()
	e.release(true)
	return chunks, nil
}

// Close frees libaom resources. It is safe to call more than once.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release(e.codec != nil)
	return nil
}

func (e *Encoder) drain() []pipeline.EncodedChunk {
	var chunks []pipeline.EncodedChunk
	var iter C.aom_codec_iter_t
	for {
		pkt := C.aom_codec_get_cx_data(e.codec, &iter)
		if pkt == nil {
			break
		}
		if C.is_frame_packet(pkt) == 0 {
			continue
		}
		chunks = append(chunks, pipeline.EncodedChunk{
			Data:        C.GoBytes(C.get_frame_buf(pkt), C.int(C.get_frame_sz(pkt))),
			TimestampUs: int64(C.get_frame_pts(pkt)),
			DurationUs:  e.frameDur,
			Keyframe:    C.is_keyframe(pkt) != 0,
		})
	}
	return chunks
}

// release frees everything allocated by Begin. destroy is false when the
// codec context was allocated but never initialized.
func (e *Encoder) release(destroy bool) {
	if e.rawFrame != nil {
		C.aom_img_free(e.rawFrame)
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
	}
	if e.codec != nil {
		if destroy {
			C.aom_codec_destroy(e.codec)
		}
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
	}
	if e.cfg != nil {
		C.free(unsafe.Pointer(e.cfg))
		e.cfg = nil
	}
}

func (e *Encoder) toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	if e.scratch == nil || e.scratch.Rect.Dx() != e.config.Width || e.scratch.Rect.Dy() != e.config.Height {
		e.scratch = image.NewRGBA(image.Rect(0, 0, e.config.Width, e.config.Height))
	}
	draw.Draw(e.scratch, e.scratch.Bounds(), img, img.Bounds().Min, draw.Src)
	return e.scratch
}

// rgbaToI420 converts RGBA to BT.601 limited range I420 in the raw frame buffer.
func (e *Encoder) rgbaToI420(rgba *image.RGBA) {
	width, height := e.config.Width, e.config.Height
	yStride := int(C.get_plane_stride(e.rawFrame, 0))
	uStride := int(C.get_plane_stride(e.rawFrame, 1))
	vStride := int(C.get_plane_stride(e.rawFrame, 2))

	yPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(e.rawFrame, 0))), yStride*height)
	uPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(e.rawFrame, 1))), uStride*((height+1)/2))
	vPlane := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(e.rawFrame, 2))), vStride*((height+1)/2))

	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < width; x++ {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			yPlane[y*yStride+x] = clamp8(((66*r + 129*g + 25*b + 128) >> 8) + 16)
			if y%2 == 0 && x%2 == 0 {
				uPlane[(y/2)*uStride+x/2] = clamp8(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
				vPlane[(y/2)*vStride+x/2] = clamp8(((112*r - 94*g - 18*b + 128) >> 8) + 128)
			}
		}
	}
}

func clamp8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
