package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/modplast83/MPBF-S-sub000/internal/models"
)

// Parameter types stored in plate_pricing_parameters.
const (
	ParamBasePrice           = "base_price"
	ParamColorMultiplier     = "color_multiplier"
	ParamThicknessMultiplier = "thickness_multiplier"
)

// Defaults used when no active parameter of a type exists.
var (
	DefaultBasePrice           = decimal.RequireFromString("0.5")
	DefaultColorMultiplier     = decimal.RequireFromString("1.2")
	DefaultThicknessMultiplier = decimal.RequireFromString("1.1")
)

// Request is the input of a plate price calculation.
type Request struct {
	CustomerID       *string `json:"customer_id"`
	Width            float64 `json:"width" validate:"gt=0"`
	Height           float64 `json:"height" validate:"gt=0"`
	Colors           int     `json:"colors" validate:"gte=0,lte=12"`
	PlateType        string  `json:"plate_type" validate:"max=100"`
	Thickness        float64 `json:"thickness" validate:"gte=0"`
	CustomerDiscount float64 `json:"customer_discount" validate:"gte=0,lte=100"`
	Notes            string  `json:"notes" validate:"max=1000"`
}

// Params are the multipliers a calculation applies.
type Params struct {
	BasePrice           decimal.Decimal
	ColorMultiplier     decimal.Decimal
	ThicknessMultiplier decimal.Decimal
}

// DefaultParams returns the built-in parameters.
func DefaultParams() Params {
	return Params{
		BasePrice:           DefaultBasePrice,
		ColorMultiplier:     DefaultColorMultiplier,
		ThicknessMultiplier: DefaultThicknessMultiplier,
	}
}

// ParamSource looks up the latest active value of a parameter type.
type ParamSource interface {
	PlateParameterValue(ctx context.Context, paramType string) (float64, bool, error)
}

// LoadParams reads each parameter type, falling back to its default.
func LoadParams(ctx context.Context, src ParamSource) (Params, error) {
	p := DefaultParams()
	for _, f := range []struct {
		typ string
		dst *decimal.Decimal
	}{
		{ParamBasePrice, &p.BasePrice},
		{ParamColorMultiplier, &p.ColorMultiplier},
		{ParamThicknessMultiplier, &p.ThicknessMultiplier},
	} {
		v, ok, err := src.PlateParameterValue(ctx, f.typ)
		if err != nil {
			return p, fmt.Errorf("load %s: %w", f.typ, err)
		}
		if ok {
			*f.dst = decimal.NewFromFloat(v)
		}
	}
	return p, nil
}

// Calculate prices a plate:
//
//	price = width*height*base
//	colors > 1:    price *= 1 + (colors-1)*(color_multiplier-1)
//	thickness > 0: price *= thickness_multiplier
//	discount:      price *= 1 - discount/100
//
// The result is rounded to two decimals.
func Calculate(req Request, p Params) models.PlateCalculation {
	one := decimal.NewFromInt(1)
	area := decimal.NewFromFloat(req.Width).Mul(decimal.NewFromFloat(req.Height))
	price := area.Mul(p.BasePrice)

	if req.Colors > 1 {
		extra := decimal.NewFromInt(int64(req.Colors - 1)).Mul(p.ColorMultiplier.Sub(one))
		price = price.Mul(one.Add(extra))
	}
	if req.Thickness > 0 {
		price = price.Mul(p.ThicknessMultiplier)
	}
	if req.CustomerDiscount > 0 {
		price = price.Mul(one.Sub(decimal.NewFromFloat(req.CustomerDiscount).Div(decimal.NewFromInt(100))))
	}

	colors := req.Colors
	if colors < 1 {
		colors = 1
	}
	return models.PlateCalculation{
		CustomerID:          req.CustomerID,
		Width:               req.Width,
		Height:              req.Height,
		Area:                area.InexactFloat64(),
		Colors:              colors,
		PlateType:           req.PlateType,
		Thickness:           req.Thickness,
		BasePricePerUnit:    p.BasePrice.InexactFloat64(),
		ColorMultiplier:     p.ColorMultiplier.InexactFloat64(),
		ThicknessMultiplier: p.ThicknessMultiplier.InexactFloat64(),
		CustomerDiscount:    req.CustomerDiscount,
		CalculatedPrice:     price.Round(2).InexactFloat64(),
		Notes:               req.Notes,
	}
}

// Quote loads the current parameters and calculates req.
func Quote(ctx context.Context, src ParamSource, req Request) (models.PlateCalculation, error) {
	p, err := LoadParams(ctx, src)
	if err != nil {
		return models.PlateCalculation{}, err
	}
	return Calculate(req, p), nil
}
