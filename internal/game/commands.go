package game

import (
	"fmt"
)

// pushOrder queues o for u. A flush replaces the queue, otherwise o is appended
// and replaces a lone still order.
func (w *World) pushOrder(u *Unit, o Order, flush bool) {
	if u.UnderConstruction {
		return
	}
	if flush {
		u.Orders = []Order{o}
		u.Wait = 0
		return
	}
	if len(u.Orders) == 1 {
		if _, idle := u.Orders[0].(*StillOrder); idle {
			u.Orders = []Order{o}
			return
		}
	}
	u.Orders = append(u.Orders, o)
}

// CommandStopUnit makes u drop whatever it was doing. Production queues of
// buildings are kept.
func (w *World) CommandStopUnit(u *Unit) {
	if u.UnderConstruction || u.Type.Building {
		return
	}
	u.ClearOrders()
}

// CommandMove sends u to pos.
func (w *World) CommandMove(u *Unit, pos Pos, z int, flush bool) {
	if u.Type.Building {
		return
	}
	w.pushOrder(u, &MoveOrder{Goal: pos, Z: z}, flush)
}

// CommandBuildBuilding orders worker u to construct a building of type t at pos.
func (w *World) CommandBuildBuilding(u *Unit, pos Pos, z int, t *UnitType, flush bool) {
	if !u.Type.CanBuildType(t) {
		w.notify(u.Player, NotifyYellow, u.Pos, u.Z, "%s cannot build %s", u.Type.DisplayName(), t.DisplayName())
		return
	}
	w.pushOrder(u, &BuildOrder{Type: t, Goal: pos, Z: z}, flush)
}

// CommandTrainUnit queues training of t at producer u and charges its costs.
func (w *World) CommandTrainUnit(u *Unit, t *UnitType) error {
	if u.UnderConstruction {
		return ErrUnderConstruction
	}
	if !u.Type.CanTrainType(t) {
		return fmt.Errorf("%w: %s at %s", ErrCannotTrain, t.Ident, u.Type.Ident)
	}
	p := u.Player
	costs := t.StatsFor(p.Index).Costs
	if err := p.CheckCosts(costs, t.Quantity()); err != nil {
		return err
	}
	p.SubCosts(costs, t.Quantity())
	w.pushOrder(u, NewTrainOrder(t, p), false)
	if w.IsOnlySelected(u) {
		w.UI.UpdateButtonPanel()
	}
	return nil
}

// CommandCancelTraining cancels the training order at slot in u's queue, or the
// last one when slot is -1. Costs are refunded.
func (w *World) CommandCancelTraining(u *Unit, slot int) error {
	if slot == -1 {
		for i := len(u.Orders) - 1; i >= 0; i-- {
			if _, ok := u.Orders[i].(*TrainOrder); ok {
				slot = i
				break
			}
		}
	}
	if slot < 0 || slot >= len(u.Orders) {
		return ErrNoSuchOrder
	}
	o, ok := u.Orders[slot].(*TrainOrder)
	if !ok {
		return ErrNoSuchOrder
	}
	o.Cancel(w, u)
	u.Orders = append(u.Orders[:slot], u.Orders[slot+1:]...)
	if slot == 0 {
		u.Wait = 0
	}
	if len(u.Orders) == 0 {
		u.ClearOrders()
	}
	if w.IsOnlySelected(u) {
		w.UI.UpdateButtonPanel()
	}
	return nil
}

// CommandCancelBuilding cancels the construction of u. The refund happens on
// its next cycle.
func (w *World) CommandCancelBuilding(u *Unit) error {
	built, ok := u.CurrentOrder().(*BuiltOrder)
	if !ok || !u.UnderConstruction {
		return ErrNoSuchOrder
	}
	built.Cancel(w, u)
	return nil
}

// CommandRepair orders u to repair target, or to walk to pos when there is none.
func (w *World) CommandRepair(u *Unit, pos Pos, z int, target *Unit, flush bool) {
	if target == nil {
		w.CommandMove(u, pos, z, flush)
		return
	}
	w.pushOrder(u, &RepairOrder{Target: target.Handle, Goal: pos, Z: z}, flush)
}

// CommandResource orders u to harvest the deposit.
func (w *World) CommandResource(u *Unit, deposit *Unit, flush bool) {
	res := deposit.Type.GivesResource
	if !u.Type.CanHarvestResource(res) {
		return
	}
	w.pushOrder(u, &ResourceOrder{Target: deposit.Handle, Goal: deposit.Pos, Z: deposit.Z, Resource: res}, flush)
}

// CommandResourceLoc orders u to harvest the terrain at pos.
func (w *World) CommandResourceLoc(u *Unit, pos Pos, z int, flush bool) {
	res := tileResource(w.Map.Field(pos, z))
	if res == 0 || !u.Type.CanHarvestResource(res) {
		return
	}
	w.pushOrder(u, &ResourceOrder{Goal: pos, Z: z, Resource: res}, flush)
}

// CommandReturnGoods orders u to deliver its load, to depot if given.
func (w *World) CommandReturnGoods(u *Unit, depot *Unit, flush bool) {
	if u.ResourcesHeld <= 0 {
		return
	}
	o := &ReturnGoodsOrder{}
	if depot != nil {
		o.Depot = depot.Handle
	}
	w.pushOrder(u, o, flush)
}

// CommandSetRallyPoint sets where units trained at u gather.
func (w *World) CommandSetRallyPoint(u *Unit, pos Pos, z int) {
	u.RallyPoint = pos
	u.RallyPointZ = z
	u.HasRallyPoint = true
}
