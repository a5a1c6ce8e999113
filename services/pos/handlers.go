package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PageHandler contém os handlers das páginas HTML
type PageHandler struct {
	catalog *CatalogUseCase
	sales   *SalesUseCase
	tracer  trace.Tracer
}

// NewPageHandler cria uma nova instância de PageHandler
func NewPageHandler(catalog *CatalogUseCase, sales *SalesUseCase, tracer trace.Tracer) *PageHandler {
	return &PageHandler{
		catalog: catalog,
		sales:   sales,
		tracer:  tracer,
	}
}

// Menu exibe o menu principal
func (h *PageHandler) Menu(c *gin.Context) {
	c.HTML(http.StatusOK, "menu.gohtml", gin.H{"Title": "Main menu"})
}

// ListProducts exibe a listagem com os totais e o formulário de vendas
func (h *PageHandler) ListProducts(c *gin.Context) {
	catalog, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "product_list.gohtml", gin.H{
		"Title":   "Products",
		"Catalog": catalog,
	})
}

// NewProductForm exibe o formulário vazio de criação
func (h *PageHandler) NewProductForm(c *gin.Context) {
	c.HTML(http.StatusOK, "product_form.gohtml", gin.H{
		"Title": "New product",
		"Form":  ProductForm{Next: c.Query("next")},
	})
}

// CreateProduct cria o produto ou devolve o formulário com os erros por campo
func (h *PageHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product_form")
	defer span.End()

	var form ProductForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderProductForm(c, form, fieldErrors(err))
		return
	}

	input, errs := form.ToInput()
	if len(errs) > 0 {
		h.renderProductForm(c, form, errs)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, input)
	if err != nil {
		if errors.Is(err, ErrInvalidProduct) {
			h.renderProductForm(c, form, fieldErrors(err))
			return
		}
		span.RecordError(err)
		h.renderError(c, err)
		return
	}

	span.SetAttributes(attribute.String("product_id", product.ID))
	c.Redirect(http.StatusSeeOther, safeRedirect(form.Next))
}

// ConfirmDelete exibe a página de confirmação da exclusão
func (h *PageHandler) ConfirmDelete(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "product_delete.gohtml", gin.H{
		"Title":   "Delete product",
		"Product": product,
		"Next":    c.Query("next"),
	})
}

// DeleteProduct remove o produto e as vendas dele
func (h *PageHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	ctx, span := startProductSpan(c.Request.Context(), h.tracer, "delete_product_form", productID)
	defer span.End()

	if _, err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		span.RecordError(err)
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("next")))
}

// RegisterSales lê os campos quantity_<id> e registra o lote de vendas
func (h *PageHandler) RegisterSales(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "register_sales_form")
	defer span.End()

	if err := c.Request.ParseForm(); err != nil {
		c.HTML(http.StatusBadRequest, "error.gohtml", gin.H{"Title": "Bad request", "Message": err.Error()})
		return
	}

	quantities := quantitiesFromForm(c.Request.PostForm)
	span.SetAttributes(attribute.Int("submitted", len(quantities)))

	if _, err := h.sales.RegisterSales(ctx, quantities); err != nil {
		span.RecordError(err)
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, safeRedirect(c.Request.PostForm.Get("next")))
}

func (h *PageHandler) renderProductForm(c *gin.Context, form ProductForm, errs map[string]string) {
	c.HTML(http.StatusBadRequest, "product_form.gohtml", gin.H{
		"Title":  "New product",
		"Form":   form,
		"Errors": errs,
	})
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	if errors.Is(err, ErrProductNotFound) {
		c.HTML(http.StatusNotFound, "not_found.gohtml", gin.H{
			"Title":   "Not found",
			"Message": "The product does not exist.",
		})
		return
	}

	log.Printf("❌ [%s %s] %v", c.Request.Method, c.FullPath(), err)
	c.HTML(http.StatusInternalServerError, "error.gohtml", gin.H{
		"Title":   "Error",
		"Message": "Something went wrong. Please try again.",
	})
}
