package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/bakery-api/internal/dto"
	"github.com/flicky/bakery-api/internal/model"
	"github.com/flicky/bakery-api/internal/service"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) CreateIngredient(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.CreateIngredient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) ListIngredients(c *gin.Context) {
	items, err := h.svc.ListIngredients(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": items, "total": len(items)})
}

func (h *InventoryHandler) GetIngredient(c *gin.Context) {
	id, ok := ingredientID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) UpdateIngredient(c *gin.Context) {
	id, ok := ingredientID(c)
	if !ok {
		return
	}
	var req dto.UpdateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.UpdateIngredient(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) DeleteIngredient(c *gin.Context) {
	id, ok := ingredientID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteIngredient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) Reconcile(c *gin.Context) {
	id, ok := ingredientID(c)
	if !ok {
		return
	}
	stock, err := h.svc.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{IngredientID: id, CurrentStock: stock})
}

func (h *InventoryHandler) RecordTransaction(c *gin.Context) {
	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, stock, err := h.svc.RecordTransaction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RecordTransactionResponse{Transaction: toTransactionResponse(t), NewStock: stock})
}

func (h *InventoryHandler) History(c *gin.Context) {
	var req dto.TransactionHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	txs, err := h.svc.History(c.Request.Context(), req.Period, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, toTransactionResponse(&txs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out, "total": len(out)})
}

func (h *InventoryHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	filename, err := h.svc.ExportCSV(c.Request.Context(), &buf, c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *InventoryHandler) Usage(c *gin.Context) {
	usage, err := h.svc.Usage(c.Request.Context(), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	top := make([]dto.IngredientUsageResponse, 0, len(usage.TopIngredients))
	for _, u := range usage.TopIngredients {
		top = append(top, dto.IngredientUsageResponse{Name: u.Name, Usage: u.Usage})
	}
	c.JSON(http.StatusOK, dto.InventoryUsageResponse{Period: usage.Period, TopIngredients: top, TypeCounts: usage.TypeCounts})
}

func (h *InventoryHandler) Health(c *gin.Context) {
	health, err := h.svc.Health(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.InventoryHealthResponse{
		ExpiredCount:  health.ExpiredCount,
		LowStockCount: health.LowStockCount,
		HealthyCount:  health.HealthyCount,
		TotalValue:    health.TotalValue,
	})
}

func ingredientID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient ID"})
		return uuid.Nil, false
	}
	return id, true
}

func toTransactionResponse(t *model.InventoryTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              t.ID,
		IngredientID:    t.IngredientID,
		IngredientName:  t.IngredientName,
		IngredientUnit:  t.IngredientUnit,
		Quantity:        t.Quantity,
		TransactionType: t.TransactionType,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
	}
}
