package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// passthrough はfn内で返したHTTPErrorはそのまま、それ以外はdb errorにする
func passthrough(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

// 金額はAPI上 "12.50" の文字列で返す
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// 監査ログ用のJSON文字列
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
