package kernel

// NewKernel constructs a Kernel bound to port, validating cfg against the
// compile/run-time constraints (PrioCount range, TimerTaskPrio strictly
// above the idle priority). The returned Kernel is not yet running; call
// Run once all application tasks have been created with TaskInit.
func NewKernel(cfg Config, port Port) *Kernel {
	if port == nil {
		fault("NewKernel", "nil port")
	}
	if err := cfg.Validate(); err != nil {
		fault("NewKernel", err.Error())
	}
	k := &Kernel{cfg: cfg, port: port}
	k.SchedInit()
	k.DelayInit()
	k.TimerModuleInit()
	k.TickInit()
	k.CPUUsageInit()
	return k
}

// SchedInit empties every ready list and clears the bitmap.
func (k *Kernel) SchedInit() {
	for i := range k.readyTable[:k.cfg.PrioCount] {
		k.readyTable[i].Init()
	}
	k.bitmap = 0
}

// DelayInit empties the delayed list.
func (k *Kernel) DelayInit() {
	k.delayedList.Init()
}

// TickInit zeroes tick_count and programs the port's tick source.
func (k *Kernel) TickInit() {
	k.tickCount = 0
	k.port.SetTickPeriod(k.cfg.SystickMS)
}

// CPUUsageInit resets the CPU-usage calibration state:
// enable_cpu_usage_state = 0, idle_count = 0, cpu_usage = 0, idle_max_count
// = 0. Written explicitly rather than relying on the zero value, so a
// Kernel can be re-armed if a caller ever reinitializes one in place.
func (k *Kernel) CPUUsageInit() {
	k.enableCPUUsageState = false
	k.idleCount = 0
	k.cpuUsagePercent = 0
	k.idleMaxCount = 0
}

// idleTaskName and timerTaskName label the two tasks Run creates so
// GetInfo/dump output can tell them apart from application tasks.
const (
	idleTaskName  = "idle"
	timerTaskName = "soft-timer"
)

// Run folds the remaining bootstrap step (create the idle task, select the
// first runnable task, hand control to run_first) into one call: it
// creates the mandatory idle task at PrioCount-1 and the
// soft-timer task at cfg.TimerTaskPrio, selects the highest-priority ready
// task (an application task if one was already created with TaskInit at a
// strictly higher priority than TimerTaskPrio, otherwise the soft-timer
// task, which TaskInit links at the head of its ready list), and transfers
// control to the port via RunFirst. Returns only if the port's RunFirst
// returns.
func (k *Kernel) Run() {
	idlePrio := k.cfg.idlePrio()

	idleStack := make([]byte, k.cfg.IdleTaskStackSize)
	idle := &TCB{}
	k.TaskInit(idle, idleTaskName, func(arg any) { idleLoop(k, arg) }, nil, idlePrio, idleStack)
	k.idleTask = idle

	timerStack := make([]byte, k.cfg.TimerTaskStackSize)
	timer := &TCB{}
	k.TaskInit(timer, timerTaskName, func(arg any) { softTimerLoop(k, arg) }, nil, k.cfg.TimerTaskPrio, timerStack)
	k.timerTask = timer

	mask := k.port.EnterCritical()
	k.curTask = k.HighestReady()
	k.port.ExitCritical(mask)

	k.port.RunFirst(k.curTask)
}
