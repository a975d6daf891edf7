package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nurbakyt/phone_app/internal/models"
	"github.com/nurbakyt/phone_app/internal/mykafka"
	"github.com/nurbakyt/phone_app/internal/predict"
	"github.com/nurbakyt/phone_app/internal/util"
)

type PhoneHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Model    *predict.Model
}

type phoneRequest struct {
	Rating     float64 `json:"rating"`
	NumRatings int     `json:"num_ratings"`
	RAM        int     `json:"ram"`
	ROM        int     `json:"rom"`
	Battery    int     `json:"battery"`
	FrontCam   int     `json:"front_cam"`
}

func (r *phoneRequest) apply(p *models.PhoneFeatures) {
	p.Rating = r.Rating
	p.NumRatings = r.NumRatings
	p.RAM = r.RAM
	p.ROM = r.ROM
	p.Battery = r.Battery
	p.FrontCam = r.FrontCam
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *PhoneHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "phone_events", fmt.Sprint(event["phoneID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *PhoneHandler) CreatePhone(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var phone models.PhoneFeatures
	req.apply(&phone)

	if err := h.DB.WithContext(c.Request().Context()).Create(&phone).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create phone")
	}

	h.publish(c, map[string]interface{}{
		"type":    "phone_created",
		"phoneID": phone.ID,
	})

	return c.JSON(http.StatusOK, phone)
}

func (h *PhoneHandler) GetPhone(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var phone models.PhoneFeatures
	if err := h.DB.WithContext(c.Request().Context()).First(&phone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "phone not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load phone")
	}

	return c.JSON(http.StatusOK, phone)
}

func (h *PhoneHandler) GetPhones(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	db := h.DB.WithContext(c.Request().Context())

	var total int64
	if err := db.Model(&models.PhoneFeatures{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count phones")
	}

	var items []models.PhoneFeatures
	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list phones")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":     page,
			"size":     limit,
			"total":    total,
			"has_next": int64(offset+limit) < total,
		},
	})
}

func (h *PhoneHandler) UpdatePhone(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	db := h.DB.WithContext(c.Request().Context())

	var phone models.PhoneFeatures
	if err := db.First(&phone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "phone not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load phone")
	}

	req.apply(&phone)

	if err := db.Save(&phone).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update phone")
	}

	h.publish(c, map[string]interface{}{
		"type":    "phone_updated",
		"phoneID": phone.ID,
	})

	return c.JSON(http.StatusOK, phone)
}

func (h *PhoneHandler) DeletePhone(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result := h.DB.WithContext(c.Request().Context()).Delete(&models.PhoneFeatures{}, id)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete phone")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "phone not found")
	}

	h.publish(c, map[string]interface{}{
		"type":    "phone_deleted",
		"phoneID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "phone deleted successfully"})
}

func (h *PhoneHandler) PredictPrice(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var phone models.PhoneFeatures
	req.apply(&phone)

	price, err := h.Model.Predict(predict.Features(&phone))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "prediction failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"predicted_price": math.Round(price)})
}
