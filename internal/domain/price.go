package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price — денежная сумма с точной десятичной арифметикой.
// Все расчёты сумм заказов идут через Price; float не используется нигде.
type Price struct {
	dec decimal.Decimal
}

// ZeroPrice возвращает нулевую сумму.
func ZeroPrice() Price {
	return Price{dec: decimal.Zero}
}

// NewPriceFromString разбирает десятичную строку вида "10.99".
func NewPriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return Price{dec: d}, nil
}

// NewPriceFromInt строит сумму из целого числа денежных единиц.
func NewPriceFromInt(v int64) Price {
	return Price{dec: decimal.NewFromInt(v)}
}

// MustPrice — NewPriceFromString для констант в тестах и инициализации;
// паникует на некорректной строке.
func MustPrice(s string) Price {
	p, err := NewPriceFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Add возвращает сумму двух цен.
func (p Price) Add(other Price) Price {
	return Price{dec: p.dec.Add(other.dec)}
}

// MulInt умножает цену на целое количество.
func (p Price) MulInt(n int64) Price {
	return Price{dec: p.dec.Mul(decimal.NewFromInt(n))}
}

// Equal сравнивает суммы по значению: 10.5 и 10.50 равны.
func (p Price) Equal(other Price) bool {
	return p.dec.Equal(other.dec)
}

// IsNegative сообщает, что сумма меньше нуля.
func (p Price) IsNegative() bool {
	return p.dec.IsNegative()
}

// String возвращает каноническую десятичную запись без хвостовых нулей.
func (p Price) String() string {
	return p.dec.String()
}

// MarshalJSON сериализует сумму; формат определяет decimal
// (число или строка — в зависимости от decimal.MarshalJSONWithoutQuotes).
func (p Price) MarshalJSON() ([]byte, error) {
	return p.dec.MarshalJSON()
}

// UnmarshalJSON принимает и число, и строку: "10.99" и 10.99 равнозначны.
func (p *Price) UnmarshalJSON(data []byte) error {
	return p.dec.UnmarshalJSON(data)
}

// Value отдаёт сумму драйверу базы как строку для колонок NUMERIC.
func (p Price) Value() (driver.Value, error) {
	return p.dec.String(), nil
}

// Scan читает значение NUMERIC из базы.
func (p *Price) Scan(src any) error {
	return p.dec.Scan(src)
}
