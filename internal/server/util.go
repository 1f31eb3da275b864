package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loykin/dumpkey/internal/gesture"
)

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}

func writeJSON(c *gin.Context, code int, v any) {
	c.JSON(code, v)
}

func parseButton(s string) (gesture.Button, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "power":
		return gesture.Power, true
	case "volume_up", "vol_up":
		return gesture.VolumeUp, true
	case "volume_down", "vol_down":
		return gesture.VolumeDown, true
	default:
		return 0, false
	}
}

func parseAction(s string) (gesture.ActionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "force_dump":
		return gesture.ForceDump, true
	case "capture_trace":
		return gesture.CaptureTrace, true
	case "capture_tombstone":
		return gesture.CaptureTombstone, true
	case "enable_debug_notify":
		return gesture.EnableDebugNotify, true
	case "enable_serial_force_notify":
		return gesture.EnableSerialForceNotify, true
	default:
		return 0, false
	}
}
