package terrain

// Glower lights its cell while it should be lit: always when unpowered by
// design, otherwise while the sibling power consumer reports power.
type Glower struct {
	Base

	lit   bool
	light *LightSource
}

func newGlower(base Base) Component {
	return &Glower{Base: base}
}

// Lit reports whether the light is currently registered.
func (g *Glower) Lit() bool { return g.lit }

// Light returns the owned light source value.
func (g *Glower) Light() *LightSource { return g.light }

// ShouldBeLitNow derives the lit state from configuration and power.
func (g *Glower) ShouldBeLitNow() bool {
	if !g.spec.Powered {
		return true
	}
	pc, ok := g.powerConsumer()
	if !ok {
		return true
	}
	return pc.PowerOn()
}

// UpdateLit registers or deregisters the light on a state transition.
func (g *Glower) UpdateLit() {
	should := g.ShouldBeLitNow()
	if should == g.lit {
		return
	}
	g.lit = should
	svc := g.Services()
	svc.Mesh.MarkMeshDirty(g.Cell())
	if g.lit {
		svc.Lighting.RegisterGlower(g.light)
	} else {
		svc.Lighting.DeregisterGlower(g.light)
	}
}

// ReceiveSignal reacts to power changes. Signals that arrive before Init or
// PostLoad are dropped; those hooks derive the lit state themselves.
func (g *Glower) ReceiveSignal(sig Signal) {
	if g.light == nil {
		return
	}
	if sig == SignalPowerTurnedOn || sig == SignalPowerTurnedOff {
		g.UpdateLit()
	}
}

// Init builds the light source and lights up if it should.
func (g *Glower) Init() {
	g.syncLight()
	g.UpdateLit()
}

// PostLoad rebuilds the transient lit state.
func (g *Glower) PostLoad() {
	g.lit = false
	g.syncLight()
	g.UpdateLit()
}

// Teardown turns the light off.
func (g *Glower) Teardown() {
	if !g.lit {
		return
	}
	g.lit = false
	svc := g.Services()
	svc.Lighting.DeregisterGlower(g.light)
	svc.Mesh.MarkMeshDirty(g.Cell())
}

func (g *Glower) syncLight() {
	if g.light == nil {
		g.light = &LightSource{}
	}
	*g.light = LightSource{
		Cell:            g.Cell(),
		Color:           g.spec.GlowColor,
		GlowRadius:      g.spec.GlowRadius,
		OverlightRadius: g.spec.OverlightRadius,
	}
}

func init() {
	RegisterComponent(CompGlower, newGlower)
}
