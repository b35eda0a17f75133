package handler

import (
    "context"
    "io"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/service"
)

// maxDeviceBody bounds a device frame; real frames are well under 1 KiB.
const maxDeviceBody = 64 << 10

type ingestor interface {
    Ingest(ctx context.Context, req service.IngestRequest) (service.IngestOutcome, error)
}

// DeviceHandler accepts wearable telemetry.  The endpoint is
// unauthenticated: the pid in the payload is the device binding.
type DeviceHandler struct {
    Ingestor ingestor
    Log      zerolog.Logger
}

func NewDeviceHandler(in ingestor, log zerolog.Logger) *DeviceHandler {
    return &DeviceHandler{Ingestor: in, Log: log}
}

// Readings handles /v1/device/readings.  Only POST is accepted.
func (h *DeviceHandler) Readings(c echo.Context) error {
    if c.Request().Method != http.MethodPost {
        c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
        return errorJSON(c, http.StatusMethodNotAllowed, "Method not allowed. Use POST.")
    }
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDeviceBody))
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid payload.")
    }
    req, err := service.DecodeIngestRequest(body)
    if err != nil {
        return errorJSON(c, http.StatusBadRequest, "Invalid payload.")
    }

    out, err := h.Ingestor.Ingest(c.Request().Context(), req)
    if err != nil {
        return writeError(c, h.Log, err)
    }

    msg := "Reading stored."
    if !out.Stored {
        msg = "No signal; reading not stored."
    }
    data := echo.Map{
        "pid":           out.PID,
        "signal_status": out.SignalStatus,
        "stored":        out.Stored,
        "abnormalities": out.Abnormalities(),
        "recorded_at":   out.Reading.Timestamp.UTC().Format(time.RFC3339),
    }
    if out.Alert != nil {
        data["alert_id"] = out.Alert.ID
    }
    return c.JSON(http.StatusCreated, echo.Map{"status": "success", "message": msg, "data": data})
}
