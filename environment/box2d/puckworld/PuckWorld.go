// Package puckworld provides an implementation of the PuckWorld
// environment using the Box2D physics engine.
package puckworld

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/samuelfneumann/gorl/environment"
	ts "github.com/samuelfneumann/gorl/timestep"
)

const (
	FPS float64 = 50

	// Size of the Box2D world
	WorldW float64 = 20.0
	WorldH float64 = 20.0

	// Puck physical constants
	PuckRadius      float64 = 0.5
	PuckDensity     float64 = 1.0
	PuckFriction    float64 = 0.1
	PuckRestitution float64 = 0.5
	ForceMag        float64 = 30.0

	// Box2D limits on velocity: 2.0 units per timestep
	MaxVelocity float64 = 2.0 / (1.0 / FPS)
	MinVelocity float64 = -MaxVelocity

	// Environment constants
	ObservationDims   int = 6
	ActionDims        int = 1
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 3
)

// puckWorld implements the PuckWorld environment. A circular puck
// slides on a frictionless 2D box. Forces can be applied to the puck
// to accelerate it towards a goal position. The puck bounces off the
// box walls. A new goal position is drawn uniformly at random over
// the box on each episode.
//
// State feature vectors are 6-dimensional and consist of the puck's
// position, the puck's velocity, and the goal position:
//
//	v ⃗	= [x, y, ẋ, ẏ, gx, gy]
//
// puckWorld does not implement the environment.Environment interface,
// but is embedded in Discrete which does implement this interface.
type puckWorld struct {
	env.Task

	world box2d.B2World
	walls []*box2d.B2Body
	puck  *box2d.B2Body

	goal    box2d.B2Vec2
	goalRng distuv.Uniform

	xBounds        r1.Interval
	yBounds        r1.Interval
	velocityBounds r1.Interval

	discount float64
	prevStep ts.TimeStep
}

// Goal returns the current goal position
func (p *puckWorld) Goal() (x, y float64) {
	return p.goal.X, p.goal.Y
}

// newPuckWorld returns a new puckWorld with task t and discount
// factor discount. The seed determines the sequence of goal
// positions.
func newPuckWorld(t env.Task, discount float64,
	seed uint64) (*puckWorld, ts.TimeStep) {
	p := puckWorld{}
	p.world = box2d.MakeB2World(box2d.B2Vec2{X: 0.0, Y: 0.0})
	p.discount = discount

	src := rand.NewSource(seed)
	p.goalRng = distuv.Uniform{
		Min: PuckRadius,
		Max: WorldW - PuckRadius,
		Src: src,
	}

	p.xBounds = r1.Interval{Min: 0.0, Max: WorldW}
	p.yBounds = r1.Interval{Min: 0.0, Max: WorldH}
	p.velocityBounds = r1.Interval{Min: MinVelocity, Max: MaxVelocity}

	task, ok := t.(puckWorldTask)
	if ok {
		task.registerEnv(&p)
		p.Task = task
	} else {
		p.Task = t
	}

	// Reset sets p.prevStep and builds the Box2D bodies
	step := p.Reset()
	return &p, step
}

// destroy tears down the Box2D bodies so that Reset can rebuild the
// world from scratch
func (p *puckWorld) destroy() {
	if p.puck == nil {
		return
	}

	p.world.DestroyBody(p.puck)
	p.puck = nil

	for _, wall := range p.walls {
		p.world.DestroyBody(wall)
	}
	p.walls = nil
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (p *puckWorld) Reset() ts.TimeStep {
	p.destroy()

	start := p.Start()
	err := validateStart(start, p.xBounds, p.yBounds)
	if err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	// Walls are static edge bodies along the box boundary
	corners := [][2]box2d.B2Vec2{
		{box2d.MakeB2Vec2(0, 0), box2d.MakeB2Vec2(0, WorldH)},
		{box2d.MakeB2Vec2(0, WorldH), box2d.MakeB2Vec2(WorldW, WorldH)},
		{box2d.MakeB2Vec2(WorldW, WorldH), box2d.MakeB2Vec2(WorldW, 0)},
		{box2d.MakeB2Vec2(WorldW, 0), box2d.MakeB2Vec2(0, 0)},
	}
	p.walls = make([]*box2d.B2Body, 0, len(corners))
	for _, corner := range corners {
		wallDef := box2d.NewB2BodyDef()
		wallDef.Type = 0 // Static body
		wall := p.world.CreateBody(wallDef)

		wallShape := box2d.NewB2EdgeShape()
		wallShape.Set(corner[0], corner[1])

		wallFix := box2d.MakeB2FixtureDef()
		wallFix.Shape = wallShape
		wall.CreateFixtureFromDef(&wallFix)

		p.walls = append(p.walls, wall)
	}

	// Puck body
	puckDef := box2d.MakeB2BodyDef()
	puckDef.Type = 2 // Dynamic body
	puckDef.Position = box2d.MakeB2Vec2(start.AtVec(0), start.AtVec(1))

	puckBody := p.world.CreateBody(&puckDef)
	p.puck = puckBody

	puckShape := box2d.NewB2CircleShape()
	puckShape.SetRadius(PuckRadius)

	puckFix := box2d.MakeB2FixtureDef()
	puckFix.Shape = puckShape
	puckFix.Density = PuckDensity
	puckFix.Friction = PuckFriction
	puckFix.Restitution = PuckRestitution
	puckBody.CreateFixtureFromDef(&puckFix)

	// New goal for the new episode
	p.goal = box2d.MakeB2Vec2(p.goalRng.Rand(), p.goalRng.Rand())

	task, ok := p.Task.(puckWorldTask)
	if ok {
		task.reset()
	}

	startStep := ts.New(ts.First, 0, p.discount, p.observation(), 0)
	p.prevStep = startStep

	return startStep
}

// step applies the argument force to the puck, advances the physics
// simulation, and constructs the next timestep from the resulting
// state. Discrete (and any other action wrapper) converts its action
// into a force and delegates to this method.
func (p *puckWorld) step(a *mat.VecDense,
	force box2d.B2Vec2) (ts.TimeStep, bool) {
	if p.prevStep.Last() {
		panic("step: cannot step environment that ended its " +
			"episode, call Reset first")
	}

	p.puck.ApplyForceToCenter(force, true)

	p.world.Step(1.0/FPS, 8, 3)

	state := p.observation()

	reward := p.GetReward(p.prevStep.Observation, a, state)
	t := ts.New(ts.Mid, reward, p.discount, state, p.prevStep.Number+1)
	p.End(&t)

	p.prevStep = t

	return t, t.Last()
}

// observation constructs the state observation from the Box2D world
func (p *puckWorld) observation() *mat.VecDense {
	pos := p.puck.GetPosition()
	vel := p.puck.GetLinearVelocity()

	return mat.NewVecDense(ObservationDims, []float64{
		pos.X,
		pos.Y,
		vel.X,
		vel.Y,
		p.goal.X,
		p.goal.Y,
	})
}

// CurrentTimeStep returns the current timestep of the environment
func (p *puckWorld) CurrentTimeStep() ts.TimeStep {
	return p.prevStep
}

// ObservationSpec returns the observation specification of the
// environment
func (p *puckWorld) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	lowerBound := mat.NewVecDense(ObservationDims, []float64{
		p.xBounds.Min,
		p.yBounds.Min,
		p.velocityBounds.Min,
		p.velocityBounds.Min,
		p.xBounds.Min,
		p.yBounds.Min,
	})

	upperBound := mat.NewVecDense(ObservationDims, []float64{
		p.xBounds.Max,
		p.yBounds.Max,
		p.velocityBounds.Max,
		p.velocityBounds.Max,
		p.xBounds.Max,
		p.yBounds.Max,
	})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the
// environment
func (p *puckWorld) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, lowerBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (p *puckWorld) String() string {
	pos := p.puck.GetPosition()

	return fmt.Sprintf("PuckWorld  |  At: (%v, %v)  |  Goal: (%v, %v)",
		pos.X, pos.Y, p.goal.X, p.goal.Y)
}

// distanceToGoal returns the Euclidean distance between the puck and
// the goal in the argument state observation
func distanceToGoal(state mat.Vector) float64 {
	dx := state.AtVec(0) - state.AtVec(4)
	dy := state.AtVec(1) - state.AtVec(5)
	return math.Sqrt(dx*dx + dy*dy)
}

// validateStart ensures a starting puck position is within the box
func validateStart(state *mat.VecDense, xBounds, yBounds r1.Interval) error {
	if state.Len() != 2 {
		return fmt.Errorf("starting values should be 2-dimensional")
	}

	if state.AtVec(0) > xBounds.Max || state.AtVec(0) < xBounds.Min {
		return fmt.Errorf("x position out of bounds, expected x ϵ "+
			"(%v, %v) but got x = %v", xBounds.Min, xBounds.Max,
			state.AtVec(0))
	}

	if state.AtVec(1) > yBounds.Max || state.AtVec(1) < yBounds.Min {
		return fmt.Errorf("y position out of bounds, expected y ϵ "+
			"(%v, %v) but got y = %v", yBounds.Min, yBounds.Max,
			state.AtVec(1))
	}

	return nil
}
