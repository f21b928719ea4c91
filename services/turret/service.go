package turret

import (
	"context"

	"turretcode-go/bus"
	"turretcode-go/calib"
	"turretcode-go/errcode"
	"turretcode-go/eventq"
	"turretcode-go/hw"
	"turretcode-go/servoctl"
	"turretcode-go/sound"
	"turretcode-go/types"
	"turretcode-go/x/timex"
)

const serviceName = "turret"

// Service runs the control loop: one consumer goroutine draining the
// event queue, the state machine deciding, actuation applied inline.
// Control verbs and retained state travel over the bus.
type Service struct {
	conn  *bus.Connection
	board *hw.Board
	q     *eventq.Queue
	servo *servoctl.Controller
	trig  *sound.Trigger
	m     *Machine
	cfg   types.TurretConfig
	prof  calib.Profile

	published bool
	lastState State
	lastArmed bool
}

// NewService builds the loop around an opened board. The calibration
// profile comes from the board's store, falling back to the default
// when the record is absent or stale.
func NewService(conn *bus.Connection, board *hw.Board, cfg types.TurretConfig) (*Service, error) {
	if cfg.QueueDepth < 4 || cfg.QueueDepth&(cfg.QueueDepth-1) != 0 {
		cfg.QueueDepth = types.DefaultTurretConfig().QueueDepth
	}
	if cfg.QueueReserve < 0 || cfg.QueueReserve >= cfg.QueueDepth {
		cfg.QueueReserve = types.DefaultTurretConfig().QueueReserve
	}

	prof := loadProfile(board.Cal)

	sc, err := servoctl.New(board.Servo, prof, servoctl.Config{
		MaxRateCD:   cfg.ServoRateCD,
		ToleranceCD: cfg.ToleranceCD,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		conn:  conn,
		board: board,
		q:     eventq.New(cfg.QueueDepth, cfg.QueueReserve),
		servo: sc,
		trig:  sound.NewTrigger(board.Audio),
		m:     NewMachine(cfg, prof),
		cfg:   cfg,
		prof:  prof,
	}
	return s, nil
}

func loadProfile(store hw.CalStore) calib.Profile {
	rec, err := store.Load()
	if err != nil {
		println("[turret] no calibration record, using defaults:", err.Error())
		return calib.Default()
	}
	prof, err := calib.DecodeRecord(rec)
	if err != nil {
		println("[turret] stale calibration record, using defaults:", err.Error())
		return calib.Default()
	}
	return prof
}

// Queue exposes the event queue for the board pump.
func (s *Service) Queue() *eventq.Queue { return s.q }

// Start launches the pump and the loop.
func (s *Service) Start(ctx context.Context) {
	go s.board.Pump(ctx, s.q, s.cfg.TickMs, s.cfg.SampleMs)
	go s.Run(ctx)
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ctrl := s.conn.Subscribe(bus.T(serviceName, "control", "+"))
	defer ctrl.Unsubscribe()

	s.trig.Trigger(sound.Startup)
	s.publishState()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ctrl.Channel():
			s.handleControl(msg)
		case <-s.q.Readable():
			s.drain()
		}
	}
}

// drain pops until empty. Each event is fully processed before the
// next; ties the worst-case latency to the queue depth.
func (s *Service) drain() {
	for {
		ev, ok := s.q.Pop()
		if !ok {
			return
		}
		s.process(ev)
	}
}

func (s *Service) process(ev eventq.Event) {
	if ev.Kind == eventq.KindSensorFault {
		s.fail("sensor.read", errcode.HardwareFault)
		return
	}
	if ev.Kind == eventq.KindTick && s.m.State() != Faulted {
		reached, err := s.servo.StepTick()
		if err != nil {
			s.fail("servo.step", err)
			return
		}
		if reached {
			s.q.Defer(eventq.Event{Kind: eventq.KindServoReached, Angle: s.servo.Position(), TS: ev.TS})
		}
	}

	act := s.m.Handle(ev, s.servo.Position())
	s.apply(act)
	s.publishState()
}

func (s *Service) apply(act Action) {
	if act.Lock != nil {
		s.board.Lock.Set(*act.Lock)
	}
	if act.Servo != nil {
		if err := s.servo.Command(*act.Servo); err != nil {
			s.fail("servo.command", err)
			return
		}
	}
	if act.Sound != nil {
		if err := s.trig.Trigger(*act.Sound); err != nil {
			// Missing audio degrades to silence, nothing else.
			println("[turret] sound dropped:", err.Error())
		}
	}
}

// fail escalates to the terminal fault state and latches the lock off.
func (s *Service) fail(op string, err error) {
	println("[turret] FAULT in", op+":", err.Error())
	act := s.m.Fault(errcode.Of(err))
	if act.Lock != nil {
		s.board.Lock.Set(*act.Lock)
	}
	s.conn.Publish(s.conn.NewMessage(bus.T(serviceName, "fault"), &types.FaultReport{
		Code: string(errcode.Of(err)),
		Op:   op,
		TS:   timex.NowMs(),
	}, true))
	s.publishState()
}

func (s *Service) publishState() {
	st, armed := s.m.State(), s.m.Armed()
	if s.published && st == s.lastState && armed == s.lastArmed {
		return
	}
	s.published = true
	s.lastState, s.lastArmed = st, armed
	s.conn.Publish(s.conn.NewMessage(bus.T(serviceName, "state"), &types.TurretState{
		State:    st.String(),
		Armed:    armed,
		AngleCD:  s.servo.Position(),
		Distance: s.m.LastDistance(),
		TS:       timex.NowMs(),
	}, true))
}

// ----------------------------- control verbs ---------------------------------

func (s *Service) handleControl(msg *bus.Message) {
	verb := msg.Topic.At(msg.Topic.Len() - 1)
	switch verb {
	case "reset":
		s.apply(s.m.Reset())
		s.publishState()
		s.replyOK(msg)
	case "arm", "disarm":
		s.controlArm(msg, verb == "arm")
	case "calibrate":
		s.controlCalibrate(msg)
	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

func (s *Service) controlArm(msg *bus.Message, want bool) {
	if s.m.State() == Faulted {
		s.replyErr(msg, errcode.Faulted)
		return
	}
	if s.m.Armed() != want {
		s.apply(s.m.onButton(0))
		s.publishState()
	}
	s.replyOK(msg)
}

// controlCalibrate replaces the profile wholesale: validate, persist,
// then swap it into the servo controller and the machine in one step.
func (s *Service) controlCalibrate(msg *bus.Message) {
	m, ok := msg.Payload.(map[string]any)
	if !ok {
		s.replyErr(msg, errcode.InvalidPayload)
		return
	}
	prof, err := profileFromMap(m, s.prof)
	if err != nil {
		s.replyErr(msg, errcode.Of(err))
		return
	}
	if err := s.board.Cal.Save(calib.EncodeRecord(prof)); err != nil {
		println("[turret] calibration save failed:", err.Error())
		s.replyErr(msg, errcode.Of(err))
		return
	}
	if err := s.servo.SetProfile(prof); err != nil {
		s.fail("servo.profile", err)
		s.replyErr(msg, errcode.Of(err))
		return
	}
	s.m.SetProfile(prof)
	s.prof = prof
	s.replyOK(msg)
}

// profileFromMap overlays payload fields on the current profile, so a
// partial recalibration keeps the untouched fields.
func profileFromMap(m map[string]any, base calib.Profile) (calib.Profile, error) {
	p := base
	if v, ok := types.AsInt(m["distance_min_mm"]); ok {
		p.DistanceMinMM = uint16(v)
	}
	if v, ok := types.AsInt(m["distance_max_mm"]); ok {
		p.DistanceMaxMM = uint16(v)
	}
	if v, ok := types.AsInt(m["angle_min_cd"]); ok {
		p.AngleMin = int16(v)
	}
	if v, ok := types.AsInt(m["angle_max_cd"]); ok {
		p.AngleMax = int16(v)
	}
	if coeffs, ok := m["coeffs"].([]any); ok && len(coeffs) == len(p.Coeffs) {
		for i, c := range coeffs {
			v, ok := types.AsInt(c)
			if !ok {
				return p, &errcode.E{C: errcode.InvalidPayload, Op: "calibrate"}
			}
			p.Coeffs[i] = int32(v)
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Service) replyOK(msg *bus.Message) {
	if msg.CanReply() {
		s.conn.Reply(msg, &types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(msg *bus.Message, c errcode.Code) {
	if msg.CanReply() {
		s.conn.Reply(msg, &types.ErrorReply{OK: false, Error: string(c)}, false)
	}
}
