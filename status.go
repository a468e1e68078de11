package goident

import (
	"fmt"
	"strings"
)

// Status is the raw (info, warning) pair returned by a numerical kernel.
// Negative Info values point at an illegal argument, by position.
type Status struct {
	Info int
	Warn int
}

// OK returns whether neither an error nor a warning was reported.
func (s Status) OK() bool {
	return s.Info == 0 && s.Warn == 0
}

// Diagnostic records the raw status of one kernel call.
type Diagnostic struct {
	Routine    string
	Experiment int // -1 when the routine is not called per experiment
	Status     Status
}

// Warning is a non fatal condition reported by a kernel.
type Warning struct {
	Routine    string
	Experiment int
	Code       int
	Message    string
}

func (w Warning) String() string {
	if w.Experiment < 0 {
		return fmt.Sprintf("%s: warning %s", w.Routine, w.Message)
	}
	return fmt.Sprintf("%s: experiment %d: warning %s", w.Routine, w.Experiment, w.Message)
}

// Warnings collects every warning of a call, in the order they happened.
type Warnings []Warning

// Has returns whether a warning with the given routine and code was reported.
func (ws Warnings) Has(routine string, code int) bool {
	for _, w := range ws {
		if w.Routine == routine && w.Code == code {
			return true
		}
	}
	return false
}

func (ws Warnings) String() string {
	lines := make([]string, len(ws))
	for i, w := range ws {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// StatusTable is the fixed message table of one routine.
// Index 0 of both tables is the OK message.
type StatusTable struct {
	Routine  string
	Errors   []string
	Warnings []string
	// CountedWarnings marks tables whose warning value is a count of
	// occurrences of the single message Warnings[1] rather than a code.
	CountedWarnings bool
}

// Translate maps a raw status onto a fatal error (if any) and a warning (if any).
// The experiment index is carried in both, use -1 for single call routines.
func (t StatusTable) Translate(st Status, experiment int) (*Warning, error) {
	if st.Info != 0 {
		return nil, &NumericalError{
			Routine:    t.Routine,
			Experiment: experiment,
			Info:       st.Info,
			Message:    t.errorMessage(st.Info),
		}
	}
	if st.Warn == 0 {
		return nil, nil
	}
	return &Warning{
		Routine:    t.Routine,
		Experiment: experiment,
		Code:       st.Warn,
		Message:    t.warningMessage(st.Warn),
	}, nil
}

func (t StatusTable) errorMessage(info int) string {
	switch {
	case info < 0:
		return fmt.Sprintf("argument %d had an illegal value", -info)
	case len(t.Errors) == 0:
		return fmt.Sprintf("returned info = %d", info)
	case info < len(t.Errors):
		return t.Errors[info]
	}
	return fmt.Sprintf("unknown error, info = %d", info)
}

func (t StatusTable) warningMessage(warn int) string {
	if t.CountedWarnings && len(t.Warnings) > 1 {
		return fmt.Sprintf("%d: %d %s", warn, warn, t.Warnings[1])
	}
	if warn > 0 && warn < len(t.Warnings) {
		return t.Warnings[warn]
	}
	return fmt.Sprintf("unknown warning, iwarn = %d", warn)
}

// Routine names, used as message prefixes and in diagnostics.
const (
	RoutinePreprocess   = "ident: preprocess"
	RoutineEstimate     = "ident: estimate"
	RoutineInitialState = "ident: initial state"
	RoutinePlace        = "place"
	RoutineHinfSyn      = "hinfsyn"
	RoutineNCFSyn       = "ncfsyn"
	RoutineConred       = "conred"
	RoutineLyap         = "lyap"
)

var preprocessTable = StatusTable{
	Routine: RoutinePreprocess,
	Errors: []string{
		"0: OK",
		"1: a fast algorithm was requested (ALG = 'C', or 'F') in sequential data processing, " +
			"but it failed; the routine can be repeatedly called again using the standard QR algorithm",
		"2: the singular value decomposition (SVD) algorithm did not converge",
	},
	Warnings: []string{
		"0: OK",
		"1: the number of 100 cycles in sequential data processing has been exhausted without " +
			"signaling that the last block of data was get; the cycle counter was reinitialized",
		"2: a fast algorithm was requested (ALG = 'C' or 'F'), but it failed, and the QR " +
			"algorithm was then used (non-sequential data processing)",
		"3: all singular values were exactly zero, hence N = 0 " +
			"(both input and output were identically zero)",
		"4: the least squares problems with coefficient matrix U_f, used for computing the " +
			"weighted oblique projection (for METH = 'N'), have a rank-deficient coefficient matrix",
		"5: the least squares problem with coefficient matrix r_1, used for computing the " +
			"weighted oblique projection (for METH = 'N'), has a rank-deficient coefficient matrix",
	},
}

var estimateTable = StatusTable{
	Routine: RoutineEstimate,
	Errors: []string{
		"0: OK",
		"1: error message not specified",
		"2: the singular value decomposition (SVD) algorithm did not converge",
		"3: a singular upper triangular matrix was found",
		"4: matrix A is (numerically) singular in discrete-time case",
		"5: the Hamiltonian or symplectic matrix H cannot be reduced to real Schur form",
		"6: the real Schur form of the Hamiltonian or symplectic matrix H cannot be appropriately ordered",
		"7: the Hamiltonian or symplectic matrix H has less than N stable eigenvalues",
		"8: the N-th order system of linear algebraic equations, from which the solution matrix X " +
			"would be obtained, is singular to working precision",
		"9: the QR algorithm failed to complete the reduction of the matrix Ac to Schur canonical form, T",
		"10: the QR algorithm did not converge",
	},
	Warnings: []string{
		"0: OK",
		"1: warning message not specified",
		"2: warning message not specified",
		"3: warning message not specified",
		"4: a least squares problem to be solved has a rank-deficient coefficient matrix",
		"5: the computed covariance matrices are too small. The problem seems to be a " +
			"deterministic one; the gain matrix is set to zero",
	},
}

var initialStateTable = StatusTable{
	Routine: RoutineInitialState,
	Errors: []string{
		"0: OK",
		"1: the QR algorithm failed to compute all the eigenvalues of the matrix A",
		"2: the singular value decomposition (SVD) algorithm did not converge",
	},
	Warnings: []string{
		"0: OK",
		"1: warning message not specified",
		"2: warning message not specified",
		"3: warning message not specified",
		"4: the least squares problem to be solved has a rank-deficient coefficient matrix",
		"5: warning message not specified",
		"6: the matrix A is unstable; the estimated x(0) and/or B and D could be inaccurate",
	},
}

var placeTable = StatusTable{
	Routine: RoutinePlace,
	Errors: []string{
		"0: OK",
		"1: the reduction of A to a real Schur form failed.",
		"2: a failure was detected during the ordering of the real Schur form of A, or in the " +
			"iterative process for reordering the eigenvalues of Z'*(A + B*F)*Z along the diagonal.",
		"3: the number of eigenvalues to be assigned is less than the number of possibly assignable " +
			"eigenvalues; NAP eigenvalues have been properly assigned, but some assignable eigenvalues " +
			"remain unmodified.",
		"4: an attempt is made to place a complex conjugate pair on the location of a real eigenvalue. " +
			"This situation can only appear when N-NFP is odd, NP > N-NFP-NUP is even, and for the last " +
			"real eigenvalue to be modified there exists no available real eigenvalue to be assigned. " +
			"However, NAP eigenvalues have been already properly assigned.",
	},
	Warnings: []string{
		"0: OK",
		"violations of the numerical stability condition NORM(F) <= 100*NORM(A)/NORM(B) " +
			"occured during the assignment of eigenvalues.",
	},
	CountedWarnings: true,
}

var hinfTable = StatusTable{
	Routine: RoutineHinfSyn,
	Errors: []string{
		"0: OK",
		"1: the matrix [A-exp(j*Theta)*I, B2; C1, D12] had not full column rank",
		"2: the matrix | A-exp(j*Theta)*I, B1; C2, D21] had not full row rank",
		"3: the matrix D12 had not full column rank",
		"4: the matrix D21 had not full row rank",
		"5: the controller is not admissible (too small value of gamma)",
		"6: the X-Riccati equation was not solved successfully (the controller is not admissible " +
			"or there are numerical difficulties)",
		"7: the Z-Riccati equation was not solved successfully (the controller is not admissible " +
			"or there are numerical difficulties)",
		"8: the matrix Im2 + DKHAT*D22 is singular",
		"9: the singular value decomposition (SVD) algorithm did not converge (when computing the " +
			"SVD of one of the matrices [A, B2; C1, D12], [A, B1; C2, D21], D12 or D21)",
	},
}

var ncfTable = StatusTable{
	Routine: RoutineNCFSyn,
	Errors: []string{
		"0: OK",
		"1: the P-Riccati equation is not solved successfully",
		"2: the Q-Riccati equation is not solved successfully",
		"3: the iteration to compute eigenvalues or singular values failed to converge",
		"4: the matrix (gamma^2-1)*In - P*Q is singular",
		"5: the matrix Rx + Bx'*X*Bx is singular",
		"6: the matrix Ip + D*Dk is singular",
		"7: the matrix Im + Dk*D is singular",
		"8: the matrix Ip - D*Dk is singular",
		"9: the matrix Im - Dk*D is singular",
		"10: the closed-loop system is unstable",
	},
}

var conredTable = StatusTable{
	Routine: RoutineConred,
	Errors: []string{
		"0: OK",
		"1: eigenvalue computation failure",
		"2: the matrix A-L*C is not stable",
		"3: the matrix A-B*F is not stable",
		"4: the Lyapunov equation for computing the observability Grammian is (nearly) singular",
		"5: the Lyapunov equation for computing the controllability Grammian is (nearly) singular",
		"6: the computation of Hankel singular values failed",
	},
	Warnings: []string{
		"0: OK",
		"1: with ORDSEL = 'F', the selected order NCR is greater than the order of a minimal " +
			"realization of the controller.",
		"2: with ORDSEL = 'F', the selected order NCR corresponds to repeated singular values, " +
			"which are neither all included nor all excluded from the reduced controller. In this " +
			"case, the resulting NCR is set automatically to the largest value such that " +
			"HSV(NCR) > HSV(NCR+1).",
	},
}

// lyapTable has no message list: any nonzero info is reported with its value.
var lyapTable = StatusTable{Routine: RoutineLyap}
