package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	defaultRedirect = "/products/"

	// quantityFieldPrefix nomeia os campos do formulário de vendas: quantity_<product id>
	quantityFieldPrefix = "quantity_"
)

// ProductForm é o formulário HTML de criação de produto
type ProductForm struct {
	Name  string `form:"name" binding:"required,max=100"`
	Price string `form:"price" binding:"required,numeric"`
	Stock string `form:"stock" binding:"required,numeric"`
	Next  string `form:"next"`
}

// ToInput converte os campos numéricos do formulário
func (f ProductForm) ToInput() (ProductInput, map[string]string) {
	fields := make(map[string]string)

	price, err := strconv.Atoi(strings.TrimSpace(f.Price))
	if err != nil {
		fields["price"] = "enter a whole number"
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	if err != nil {
		fields["stock"] = "enter a whole number"
	}

	return ProductInput{Name: f.Name, Price: price, Stock: stock}, fields
}

// ProductPayload é o corpo JSON de criação e edição de produto
type ProductPayload struct {
	Name  string `json:"name" binding:"required,max=100"`
	Price *int   `json:"price" binding:"required,min=-32768,max=32767"`
	Stock *int   `json:"stock" binding:"required,min=0,max=2147483647"`
}

// ToInput converte o payload validado
func (p ProductPayload) ToInput() ProductInput {
	return ProductInput{Name: p.Name, Price: *p.Price, Stock: *p.Stock}
}

// RegisterSalesPayload é o corpo JSON do registro de vendas em lote
type RegisterSalesPayload struct {
	Quantities map[string]string `json:"quantities" binding:"required"`
}

// quantitiesFromForm extrai as quantidades por produto dos campos quantity_<id>.
// Com campos repetidos vale o último valor.
func quantitiesFromForm(form url.Values) map[string]string {
	quantities := make(map[string]string)
	for key, values := range form {
		if !strings.HasPrefix(key, quantityFieldPrefix) || len(values) == 0 {
			continue
		}
		id := strings.TrimPrefix(key, quantityFieldPrefix)
		if id == "" {
			continue
		}
		quantities[id] = values[len(values)-1]
	}
	return quantities
}

// safeRedirect aceita apenas caminhos locais; qualquer outro destino cai na listagem
func safeRedirect(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return defaultRedirect
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultRedirect
	}
	return next
}

// fieldErrors traduz erros de binding e validação em mensagens por campo
func fieldErrors(err error) map[string]string {
	fields := make(map[string]string)

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		for k, v := range validationErr.Fields {
			fields[k] = v
		}
		return fields
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields[typeErr.Field] = fmt.Sprintf("expected a %s", typeErr.Type.String())
		return fields
	}

	fields["form"] = err.Error()
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "numeric":
		return "enter a whole number"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s validation", fe.Tag())
	}
}
