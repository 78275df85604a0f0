package service

import (
	"testing"

	"ventify/internal/apierror"

	"github.com/stretchr/testify/assert"
)

func TestValidarCentavos(t *testing.T) {
	for monto, ok := range map[string]bool{
		"0":      true,
		"10":     true,
		"10.5":   true,
		"10.500": true,
		"-3.25":  true,
		"0.004":  false,
		"0.001":  false,
		"99.999": false,
	} {
		err := validarCentavos("monto", dec(monto))
		if ok {
			assert.NoError(t, err, monto)
			continue
		}
		assert.True(t, apierror.Is(err, apierror.KindInvalidInput), monto)
		assert.Contains(t, err.Error(), "monto")
	}
	assert.NoError(t, validarCentavosOpcional("monto_cierre", nil))
	assert.Error(t, validarCentavosOpcional("monto_cierre", decPtr("1.234")))
}
