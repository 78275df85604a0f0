package service

import (
	"ventify/internal/apierror"

	"github.com/shopspring/decimal"
)

// validarCentavos rejects amounts finer than the cent. Money columns are
// decimal(12,2), so a finer input would be stored rounded while the ledger
// checks ran on the unrounded value.
func validarCentavos(campo string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return apierror.InvalidInputf("El campo %s admite como máximo 2 decimales.", campo)
	}
	return nil
}

// validarCentavosOpcional is validarCentavos for optional amounts.
func validarCentavosOpcional(campo string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	return validarCentavos(campo, *d)
}
