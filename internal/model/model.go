package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// 金额字段序列化为 JSON 数字，与前端约定一致
	decimal.MarshalJSONWithoutQuotes = true
}
