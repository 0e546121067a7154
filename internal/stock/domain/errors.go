package stock

import "errors"

// ErrNotFound indicates a missing stock record.
var ErrNotFound = errors.New("stock: record not found")

// ErrDuplicate indicates a record already exists for the composite key.
var ErrDuplicate = errors.New("stock: record already exists for tool/pocket")

// ErrInsufficientStock indicates a removal larger than the current stock.
var ErrInsufficientStock = errors.New("stock: insufficient stock")

// ErrInvalid indicates a caller-fixable problem with the submitted record.
var ErrInvalid = errors.New("stock: invalid record")
