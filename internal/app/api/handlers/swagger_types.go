package handlers

import (
	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/app/service/statistics"
	"github.com/bottlemart/backend/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespScanPayments wraps ScanPaymentsResponse in the standard envelope.
type RespScanPayments struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    payment.ScanPaymentsResponse `json:"data"`
}

// RespSalesStatistic wraps SalesStatisticResponse in the standard envelope.
type RespSalesStatistic struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    statistics.SalesStatisticResponse `json:"data"`
}
