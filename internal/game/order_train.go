package game

import (
	"errors"
	"fmt"

	"ironhold/internal/savefile"
)

// TrainOrder makes a producer spend ticks to spawn units of Type.
type TrainOrder struct {
	orderBase
	Type *UnitType
	// Player is the slot that paid for the order.
	Player int
	Ticks  int
}

// NewTrainOrder returns a training order paid for by p.
func NewTrainOrder(t *UnitType, p *Player) *TrainOrder {
	return &TrainOrder{Type: t, Player: p.Index}
}

func (o *TrainOrder) Action() Action { return ActionTrain }

// Cancel refunds the order's costs for every unit it would have produced.
func (o *TrainOrder) Cancel(w *World, u *Unit) {
	p := w.Players[o.Player]
	factor := w.Settings.CancelTrainingCostsFactor * o.Type.Quantity()
	p.AddCostsFactor(o.Type.StatsFor(o.Player).Costs, factor)
	w.emit(Event{Kind: EventTrainingCancelled, Player: o.Player, Unit: u.Ref(), Type: o.Type.Ident, Pos: u.Pos, Z: u.Z})
	o.finished = true
}

// Execute runs one cycle of training.
func (o *TrainOrder) Execute(w *World, u *Unit) {
	if !w.checkCurrent(u, o) {
		return
	}
	if u.Wait > 0 {
		u.Wait--
		return
	}

	player := u.Player
	typ := o.Type
	quantity := typ.Quantity()

	if err := player.CheckLimits(typ, quantity); err != nil {
		if errors.Is(err, ErrSupplyLimit) {
			if player.AI {
				w.AI.NeedMoreSupply(player)
			} else {
				w.notify(player, NotifyYellow, u.Pos, u.Z, "Not enough supply to train %s.", typ.DisplayName())
			}
		}
		w.Log.Debugf("%d: training %s stalled: %v", player.Index, typ.Ident, err)
		o.Ticks = 0
		u.Wait = w.Settings.ShortWait()
		return
	}

	cost := typ.TimeCost(o.Player)
	o.Ticks += max(1, player.SpeedTrain/w.Settings.SpeedupFactor)
	if o.Ticks < cost {
		u.Wait = w.Settings.ShortWait()
		return
	}
	o.Ticks = min(o.Ticks, cost)

	owner := player
	if typ.Item {
		owner = w.NeutralPlayer()
	}

	for i := 0; i < quantity; i++ {
		nu, err := w.MakeUnit(typ, owner)
		if err != nil {
			w.notify(player, NotifyYellow, u.Pos, u.Z, "Unable to train %s", typ.DisplayName())
			u.Wait = w.Settings.ShortWait()
			return
		}
		w.UpdateForNewUnit(nu, false)
		if u.Type.DecayRate > 0 {
			nu.TTL = w.Cycle + u.Type.DecayRate*6*w.Settings.CyclesPerSecond
		}
		w.DropOutOnSide(nu, LookingW, u)
		if player == w.ThisPlayer {
			w.Sound.PlayUnitSound(nu, SoundReady)
		}
		if player.AI {
			w.AI.TrainingComplete(u, nu)
		}
		w.emit(unitEvent(EventUnitTrained, nu))
		if u.HasRallyPoint {
			w.issueRallyCommand(u, nu)
		}
	}

	if w.IsOnlySelected(u) {
		w.UI.UpdateButtonPanel()
	}
	o.finished = true
}

// issueRallyCommand sends a freshly trained unit to work at the trainer's rally
// point, preferring repair, then harvesting, then building an extractor, then
// terrain harvesting, and otherwise a plain move.
func (w *World) issueRallyCommand(trainer, nu *Unit) {
	pos, z := trainer.RallyPoint, trainer.RallyPointZ
	tile := w.Map.Field(pos, z)
	if tile == nil {
		return
	}
	var dest *Unit
	for _, cand := range w.UnitsOnTile(pos, z) {
		if cand != nu && !cand.Removed {
			dest = cand
			break
		}
	}

	if dest != nil {
		if nu.Type.RepairRange > 0 && dest.Type.RepairHP > 0 &&
			dest.Variables[VarHP].Value < dest.Variables[VarHP].Max &&
			(dest.Player == nu.Player || nu.Player.IsAllied(dest.Player)) {
			w.CommandRepair(nu, pos, z, dest, true)
			return
		}
		res := dest.Type.GivesResource
		if res != 0 && nu.Type.CanHarvestResource(res) {
			if dest.Type.CanHarvest {
				w.CommandResource(nu, dest, true)
				return
			}
			if ext := w.findExtractor(nu, dest); ext != nil {
				w.CommandBuildBuilding(nu, dest.Pos, dest.Z, ext, true)
				return
			}
		}
	}

	if tile.Overlay != nil && !tile.OverlayDestroyed && tile.Overlay.Resource != 0 && tile.Value > 0 &&
		tile.IsExplored(nu.Player.Index) && nu.Type.CanHarvestResource(tile.Overlay.Resource) {
		w.CommandResourceLoc(nu, pos, z, true)
		return
	}
	w.CommandMove(nu, pos, z, true)
}

// findExtractor returns a type nu can build on top of the deposit to harvest it.
func (w *World) findExtractor(nu, deposit *Unit) *UnitType {
	res := deposit.Type.GivesResource
	for _, t := range w.UnitTypes {
		if t.GivesResource != res || !t.CanHarvest || t.OnTopOf != deposit.Type {
			continue
		}
		if !nu.Type.CanBuildType(t) {
			continue
		}
		if w.CanBuildUnitType(t, deposit.Pos, deposit.Z) {
			return t
		}
	}
	return nil
}

// Show marks the trainer's rally point.
func (o *TrainOrder) Show(w *World, u *Unit) []Marker {
	if !u.HasRallyPoint {
		return nil
	}
	return []Marker{{Pos: u.RallyPoint, Z: u.RallyPointZ, Label: "rally"}}
}

// UpdateUnitVariables exposes training progress for the UI.
func (o *TrainOrder) UpdateUnitVariables(w *World, u *Unit) {
	v := &u.Variables[VarTraining]
	v.Value = o.Ticks
	v.Max = o.Type.TimeCost(o.Player)
	v.Enable = true
}

// Save implements Order.
func (o *TrainOrder) Save(w *World, u *Unit) savefile.Table {
	return o.header("action-train").
		AddKey("type", savefile.Str(o.Type.Ident)).
		AddKey("player", savefile.Int(o.Player)).
		AddKey("ticks", savefile.Int(o.Ticks))
}

// ParseSpecificData implements Order.
func (o *TrainOrder) ParseSpecificData(w *World, key string, c *savefile.Cursor, u *Unit) (bool, error) {
	switch key {
	case "type":
		ident, err := c.String()
		if err != nil {
			return true, err
		}
		if o.Type = w.UnitType(ident); o.Type == nil {
			return true, fmt.Errorf("%w: %q", ErrUnknownUnitType, ident)
		}
	case "player":
		p, err := c.Int()
		if err != nil {
			return true, err
		}
		if p < 0 || p >= PlayerMax {
			return true, fmt.Errorf("%w: player %d", ErrBadSave, p)
		}
		o.Player = p
	case "ticks":
		n, err := c.Int()
		if err != nil {
			return true, err
		}
		o.Ticks = n
	default:
		return false, nil
	}
	return true, nil
}
