package handler

import (
    "fmt"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/maternal-vitals/internal/model"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

const notAvailable = "N/A"

func twoDecimals(v float64) string { return fmt.Sprintf("%.2f", v) }

// latestBody renders the latest-reading card.  Values are strings with two
// decimals, or "N/A" everywhere when there is no reading yet.
func latestBody(rd *model.Reading) echo.Map {
    if rd == nil {
        return echo.Map{
            "status":        "success",
            "message":       "No readings yet.",
            "heart_rate":    notAvailable,
            "spo2":          notAvailable,
            "temperature":   notAvailable,
            "acc_ax":        notAvailable,
            "acc_ay":        notAvailable,
            "acc_az":        notAvailable,
            "acc_magnitude": notAvailable,
            "last_updated":  notAvailable,
        }
    }
    return echo.Map{
        "status":        "success",
        "message":       "Latest reading.",
        "heart_rate":    twoDecimals(rd.HeartRate),
        "spo2":          twoDecimals(rd.SpO2),
        "temperature":   twoDecimals(rd.Temperature),
        "acc_ax":        twoDecimals(rd.AccelX),
        "acc_ay":        twoDecimals(rd.AccelY),
        "acc_az":        twoDecimals(rd.AccelZ),
        "acc_magnitude": twoDecimals(rd.AccelMagnitude()),
        "last_updated":  rd.Timestamp.UTC().Format(model.TimestampLayout),
        "vitals_status": service.DisplayThresholds.Classify(*rd),
    }
}

// trendBody renders parallel series for charting, oldest first.
func trendBody(readings []model.Reading) echo.Map {
    hr := make([]float64, 0, len(readings))
    spo2 := make([]float64, 0, len(readings))
    labels := make([]string, 0, len(readings))
    for _, r := range readings {
        hr = append(hr, r.HeartRate)
        spo2 = append(spo2, r.SpO2)
        labels = append(labels, r.Timestamp.UTC().Format(model.TimestampLayout))
    }
    return echo.Map{"status": "success", "heart_rate": hr, "spo2": spo2, "labels": labels}
}

type readingRow struct {
    ReadingID   uint64  `json:"reading_id"`
    HeartRate   float64 `json:"heart_rate"`
    SpO2        float64 `json:"spo2"`
    Temperature float64 `json:"temperature"`
    AccX        float64 `json:"acc_ax"`
    AccY        float64 `json:"acc_ay"`
    AccZ        float64 `json:"acc_az"`
    Timestamp   string  `json:"timestamp"`
}

type alertRow struct {
    AlertID    uint64  `json:"alert_id"`
    Type       string  `json:"alert_type"`
    Message    string  `json:"alert_message"`
    Value      float64 `json:"value"`
    RecordedAt string  `json:"recorded_at"`
    Status     string  `json:"status"`
}

func readingRows(rs []model.Reading) []readingRow {
    out := make([]readingRow, 0, len(rs))
    for _, r := range rs {
        out = append(out, readingRow{
            ReadingID: r.ID, HeartRate: r.HeartRate, SpO2: r.SpO2, Temperature: r.Temperature,
            AccX: r.AccelX, AccY: r.AccelY, AccZ: r.AccelZ,
            Timestamp: r.Timestamp.UTC().Format(model.TimestampLayout),
        })
    }
    return out
}

func alertRows(as []model.Alert) []alertRow {
    out := make([]alertRow, 0, len(as))
    for _, a := range as {
        out = append(out, toAlertRow(a))
    }
    return out
}

func toAlertRow(a model.Alert) alertRow {
    return alertRow{
        AlertID: a.ID, Type: a.Type, Message: a.Message, Value: a.Value,
        RecordedAt: a.RecordedAt.UTC().Format(model.TimestampLayout), Status: string(a.Status),
    }
}
