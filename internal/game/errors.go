package game

import "errors"

// Game errors
var (
	ErrUnitLimit             = errors.New("no free unit slot")
	ErrNotCurrentOrder       = errors.New("order is not the unit's current order")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrSupplyLimit           = errors.New("not enough supply")
	ErrPlayerUnitLimit       = errors.New("unit limit reached")
	ErrBuildingLimit         = errors.New("building limit reached")
	ErrTotalUnitLimit        = errors.New("total unit limit reached")
	ErrCannotBuildHere       = errors.New("cannot build there")
	ErrUnderConstruction     = errors.New("unit is under construction")
	ErrCannotTrain           = errors.New("unit cannot train that type")
	ErrNoSuchOrder           = errors.New("no such order")
	ErrUnknownUnitType       = errors.New("unknown unit type")
	ErrUnknownUnit           = errors.New("unknown unit reference")
	ErrUnknownOrder          = errors.New("unknown order record")
	ErrBadSave               = errors.New("malformed save record")
)
