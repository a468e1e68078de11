package goident

import "fmt"

// Method selects the subspace identification method of a stage.
type Method byte

const (
	// MethodMOESP is the multivariable output-error state space method.
	MethodMOESP Method = 'M'
	// MethodN4SID is the numerical algorithm for subspace state space identification.
	MethodN4SID Method = 'N'
	// MethodCombined estimates A and C with MOESP, B and D with N4SID.
	// Only meaningful for the realization stage.
	MethodCombined Method = 'C'
)

func (m Method) String() string {
	switch m {
	case MethodMOESP:
		return "MOESP"
	case MethodN4SID:
		return "N4SID"
	case MethodCombined:
		return "combined"
	}
	return fmt.Sprintf("Method(%q)", byte(m))
}

// Algorithm selects how the triangular factor R is accumulated.
type Algorithm byte

const (
	// AlgCholesky accumulates the data correlation matrix and factors it with Cholesky.
	AlgCholesky Algorithm = 'C'
	// AlgFastQR builds the correlation matrix with the block-Hankel shift structure.
	AlgFastQR Algorithm = 'F'
	// AlgQR updates R with QR factorizations of the data blocks.
	AlgQR Algorithm = 'Q'
)

func (a Algorithm) String() string {
	switch a {
	case AlgCholesky:
		return "Cholesky"
	case AlgFastQR:
		return "fast QR"
	case AlgQR:
		return "QR"
	}
	return fmt.Sprintf("Algorithm(%q)", byte(a))
}

// DataJob tells the preprocessing kernel which method will consume R.
// It is derived from the method and never chosen independently.
type DataJob byte

const (
	// DataJobMOESP keeps what MOESP needs to later estimate B and D.
	DataJobMOESP DataJob = 'M'
	// DataJobN4SID is the only job relevant for N4SID.
	DataJobN4SID DataJob = 'N'
)

// Connection tells whether successive experiments continue each other.
// Its selector is inverted: 0 means Connected.
type Connection byte

const (
	// Connected experiments are treated as a continuation of the previous one.
	Connected Connection = 'C'
	// NotConnected experiments are independent.
	NotConnected Connection = 'N'
)

// Confirm tells whether the estimated order is handed to an OrderConfirmer.
// Its selector is inverted: 0 means ConfirmOrder.
type Confirm byte

const (
	// ConfirmOrder asks the OrderConfirmer (if any) to validate the order.
	ConfirmOrder Confirm = 'C'
	// NoConfirm accepts the order estimate as is.
	NoConfirm Confirm = 'N'
)

// Selectors are the small integer choices made by the caller.
type Selectors struct {
	Method       int // 0: MOESP, 1: N4SID, 2: N4SID preprocessing with combined estimation
	Algorithm    int // 0: Cholesky, 1: fast QR, 2: QR
	Connectivity int // 0: connected experiments, else independent
	Control      int // 0: confirm the order, else accept the estimate
}

// Modes is the validated flag set used by the identification stages.
type Modes struct {
	Preprocess Method // stage A method, MOESP or N4SID
	Estimate   Method // stage B method
	Algorithm  Algorithm
	Job        DataJob
	Connection Connection
	Confirm    Confirm
}

// TranslateModes maps integer selectors onto the flag vocabulary of the kernels.
// Invalid selectors fail with a ModeError before any numerical work happens.
func TranslateModes(sel Selectors) (Modes, error) {
	var modes Modes
	switch sel.Method {
	case 0:
		modes.Preprocess, modes.Estimate = MethodMOESP, MethodMOESP
	case 1:
		modes.Preprocess, modes.Estimate = MethodN4SID, MethodN4SID
	case 2:
		// N4SID preprocessing feeds the combined estimator.
		modes.Preprocess, modes.Estimate = MethodN4SID, MethodCombined
	default:
		return Modes{}, &ModeError{Selector: "method", Value: sel.Method}
	}

	switch sel.Algorithm {
	case 0:
		modes.Algorithm = AlgCholesky
	case 1:
		modes.Algorithm = AlgFastQR
	case 2:
		modes.Algorithm = AlgQR
	default:
		return Modes{}, &ModeError{Selector: "algorithm", Value: sel.Algorithm}
	}

	if modes.Preprocess == MethodMOESP {
		modes.Job = DataJobMOESP
	} else {
		modes.Job = DataJobN4SID
	}

	modes.Connection = NotConnected
	if sel.Connectivity == 0 {
		modes.Connection = Connected
	}
	modes.Confirm = NoConfirm
	if sel.Control == 0 {
		modes.Confirm = ConfirmOrder
	}
	return modes, nil
}

// Validate checks a Modes value built by hand rather than by TranslateModes.
func (m Modes) Validate() error {
	switch m.Preprocess {
	case MethodMOESP, MethodN4SID:
	default:
		return &ModeError{Selector: "preprocessing method", Value: int(m.Preprocess)}
	}
	switch m.Estimate {
	case MethodMOESP, MethodN4SID, MethodCombined:
	default:
		return &ModeError{Selector: "estimation method", Value: int(m.Estimate)}
	}
	switch m.Algorithm {
	case AlgCholesky, AlgFastQR, AlgQR:
	default:
		return &ModeError{Selector: "algorithm", Value: int(m.Algorithm)}
	}
	switch m.Job {
	case DataJobMOESP, DataJobN4SID:
	default:
		return &ModeError{Selector: "data job", Value: int(m.Job)}
	}
	switch m.Connection {
	case Connected, NotConnected:
	default:
		return &ModeError{Selector: "connectivity", Value: int(m.Connection)}
	}
	switch m.Confirm {
	case ConfirmOrder, NoConfirm:
	default:
		return &ModeError{Selector: "control", Value: int(m.Confirm)}
	}
	return nil
}

// TimeDomain tells the peer routines whether the system is continuous or discrete.
type TimeDomain byte

const (
	// Continuous time systems.
	Continuous TimeDomain = 'C'
	// Discrete time systems.
	Discrete TimeDomain = 'D'
)

// PlaceDomain translates the pole placement selector: 1 is discrete, anything else continuous.
func PlaceDomain(sel int) TimeDomain {
	if sel == 1 {
		return Discrete
	}
	return Continuous
}

// DomainSelector translates the lyap/conred selector: 0 is continuous, anything else discrete.
func DomainSelector(sel int) TimeDomain {
	if sel == 0 {
		return Continuous
	}
	return Discrete
}

// ReductionMethod selects balancing for controller reduction.
type ReductionMethod byte

const (
	// ReduceBalance uses the square-root balance & truncate method.
	ReduceBalance ReductionMethod = 'B'
	// ReduceBalanceFree uses the balancing-free square-root method.
	ReduceBalanceFree ReductionMethod = 'F'
)

// ConredModes are the translated flags of coprime-factor controller reduction.
type ConredModes struct {
	Domain    TimeDomain
	UseD      bool // false: D is zero
	Method    ReductionMethod
	RightSide bool // false: left coprime factorization
	FixOrder  bool // true: the requested order is used, false: automatic
}

// ConredSelectors are the integer choices of controller reduction.
type ConredSelectors struct {
	Domain    int // 0: continuous
	OrderSel  int // 0: fixed order
	UseD      int // 0: D is zero
	Method    int // 0: balance, 1: balancing-free
	Factoring int // 0: left, else right
}

// TranslateConredModes validates the controller reduction selectors.
func TranslateConredModes(sel ConredSelectors) (ConredModes, error) {
	modes := ConredModes{
		Domain:    DomainSelector(sel.Domain),
		UseD:      sel.UseD != 0,
		RightSide: sel.Factoring != 0,
		FixOrder:  sel.OrderSel == 0,
	}
	switch sel.Method {
	case 0:
		modes.Method = ReduceBalance
	case 1:
		modes.Method = ReduceBalanceFree
	default:
		return ConredModes{}, &ModeError{Selector: "jobmr", Value: sel.Method}
	}
	return modes, nil
}
