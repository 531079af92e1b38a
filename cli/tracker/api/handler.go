package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/distance"
	"github.com/daniil11ru/fleetwatch/cli/tracker/fleet"
	"github.com/daniil11ru/fleetwatch/cli/tracker/speedcontrol"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	Fleet       *fleet.Fleet
	Detector    *speedcontrol.Detector
	Accumulator *distance.Accumulator
	Tracks      storage.TrackSource
}

func NewHandler(f *fleet.Fleet, d *speedcontrol.Detector, a *distance.Accumulator, tracks storage.TrackSource) *Handler {
	return &Handler{Fleet: f, Detector: d, Accumulator: a, Tracks: tracks}
}

// GetFleet возвращает активный срез парка без устаревших позиций.
func (h *Handler) GetFleet(c *gin.Context) {
	c.JSON(http.StatusOK, h.Fleet.Active())
}

// GetAlerts возвращает журнал сигналов, от новых к старым.
func (h *Handler) GetAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.Detector.Alerts())
}

// GetDistance возвращает суточный пробег ТС. Дата по умолчанию — сегодня.
func (h *Handler) GetDistance(c *gin.Context) {
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не задан vehicle_id"})
		return
	}

	dateKey := c.Query("date")
	if dateKey == "" {
		dateKey = distance.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректная дата, ожидается ГГГГ-ММ-ДД"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicleId": vehicleID,
		"date":      dateKey,
		"km":        h.Accumulator.Total(vehicleID, dateKey),
	})
}

type setSpeedLimitRequest struct {
	Limit float64 `json:"limit"`
}

// SetSpeedLimit меняет действующее ограничение скорости.
func (h *Handler) SetSpeedLimit(c *gin.Context) {
	req := setSpeedLimitRequest{}
	if err := c.ShouldBindJSON(&req); err != nil || req.Limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ожидается положительное значение limit"})
		return
	}

	h.Detector.SetLimit(req.Limit)
	log.Infof("Установлено ограничение скорости %.0f км/ч", req.Limit)
	c.JSON(http.StatusOK, gin.H{"limit": req.Limit})
}

// ClearAlerts очищает журнал сигналов.
func (h *Handler) ClearAlerts(c *gin.Context) {
	h.Detector.Clear()
	c.Status(http.StatusNoContent)
}

// GetTrack возвращает сохранённую историю маршрута ТС за день.
func (h *Handler) GetTrack(c *gin.Context) {
	if h.Tracks == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "хранилище истории не настроено"})
		return
	}

	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не задан vehicle_id"})
		return
	}
	dateKey := c.Query("date")
	if dateKey == "" {
		dateKey = distance.DateKey(time.Now())
	}

	payloads, err := h.Tracks.LoadByKey(storage.TrackKey(vehicleID, dateKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points := make([]storage.TrackRecord, 0, len(payloads))
	for _, raw := range payloads {
		point := storage.TrackRecord{}
		if err := json.Unmarshal(raw, &point); err != nil {
			// Повреждённая точка не должна ронять выдачу всего маршрута.
			continue
		}
		points = append(points, point)
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicleId": vehicleID,
		"date":      dateKey,
		"points":    points,
	})
}

// GetSpeedLimit возвращает действующее ограничение.
func (h *Handler) GetSpeedLimit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"limit": h.Detector.Limit()})
}
