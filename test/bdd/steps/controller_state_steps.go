package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/controller"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

type controllerStateContext struct {
	stateMachine    *controller.StateMachine
	clock           *shared.MockClock
	transitionError error
}

func (cc *controllerStateContext) reset() {
	cc.clock = shared.NewMockClock(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))
	cc.stateMachine = nil
	cc.transitionError = nil
}

// Given steps

func (cc *controllerStateContext) aControllerStateMachine() error {
	cc.stateMachine = controller.NewStateMachine(cc.clock)
	return nil
}

func (cc *controllerStateContext) aControllerStateMachineIn(state string) error {
	cc.stateMachine = controller.NewStateMachine(cc.clock)

	var path []func() (controller.Transition, error)
	switch controller.State(state) {
	case controller.StateIdle:
	case controller.StateAwaitingBridgeReady:
		path = append(path, cc.stateMachine.Begin)
	case controller.StateAwaitingLogin:
		path = append(path, cc.stateMachine.Begin, cc.stateMachine.BridgeReady)
	case controller.StateActive:
		path = append(path, cc.stateMachine.Begin, cc.stateMachine.BridgeReady, cc.stateMachine.Authenticated)
	case controller.StateStopped:
		path = append(path, cc.stateMachine.Begin, func() (controller.Transition, error) {
			return cc.stateMachine.Stop(nil)
		})
	default:
		return fmt.Errorf("unknown state: %s", state)
	}

	for _, step := range path {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}

// When steps

func (cc *controllerStateContext) iCreateAControllerStateMachine() error {
	return cc.aControllerStateMachine()
}

func (cc *controllerStateContext) theControllerBeginsARun() error {
	_, err := cc.stateMachine.Begin()
	return err
}

func (cc *controllerStateContext) theBridgeBecomesReady() error {
	_, err := cc.stateMachine.BridgeReady()
	return err
}

func (cc *controllerStateContext) theSessionIsAuthenticated() error {
	_, err := cc.stateMachine.Authenticated()
	return err
}

func (cc *controllerStateContext) secondsPass(seconds int) error {
	cc.clock.Advance(time.Duration(seconds) * time.Second)
	return nil
}

func (cc *controllerStateContext) theControllerIsStopped() error {
	_, err := cc.stateMachine.Stop(nil)
	return err
}

func (cc *controllerStateContext) theControllerIsStoppedWithCause(cause string) error {
	_, err := cc.stateMachine.Stop(errors.New(cause))
	return err
}

func (cc *controllerStateContext) theControllerAttempts(action string) error {
	switch action {
	case "begin":
		_, cc.transitionError = cc.stateMachine.Begin()
	case "bridge ready":
		_, cc.transitionError = cc.stateMachine.BridgeReady()
	case "authenticated":
		_, cc.transitionError = cc.stateMachine.Authenticated()
	case "stop":
		_, cc.transitionError = cc.stateMachine.Stop(nil)
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
	return nil
}

// Then steps

func (cc *controllerStateContext) theControllerStateShouldBe(expected string) error {
	if got := cc.stateMachine.State(); string(got) != expected {
		return fmt.Errorf("expected state %s, got %s", expected, got)
	}
	return nil
}

func (cc *controllerStateContext) theControllerShouldBeRunning() error {
	if !cc.stateMachine.State().IsRunning() {
		return fmt.Errorf("expected a running state, got %s", cc.stateMachine.State())
	}
	return nil
}

func (cc *controllerStateContext) theControllerShouldNotBeRunning() error {
	if cc.stateMachine.State().IsRunning() {
		return fmt.Errorf("expected a non-running state, got %s", cc.stateMachine.State())
	}
	return nil
}

func (cc *controllerStateContext) theStartedTimestampShouldBeNil() error {
	if started := cc.stateMachine.StartedAt(); started != nil {
		return fmt.Errorf("expected no start time, got %s", started)
	}
	return nil
}

func (cc *controllerStateContext) theRuntimeShouldBe(seconds int) error {
	expected := time.Duration(seconds) * time.Second
	if got := cc.stateMachine.RuntimeDuration(); got != expected {
		return fmt.Errorf("expected runtime %s, got %s", expected, got)
	}
	return nil
}

func (cc *controllerStateContext) theLastErrorShouldBeEmpty() error {
	if err := cc.stateMachine.LastError(); err != nil {
		return fmt.Errorf("expected no last error, got %v", err)
	}
	return nil
}

func (cc *controllerStateContext) theLastErrorShouldBe(expected string) error {
	err := cc.stateMachine.LastError()
	if err == nil {
		return fmt.Errorf("expected last error %q, got none", expected)
	}
	if err.Error() != expected {
		return fmt.Errorf("expected last error %q, got %q", expected, err.Error())
	}
	return nil
}

func (cc *controllerStateContext) theTransitionShouldFail() error {
	if cc.transitionError == nil {
		return fmt.Errorf("expected the transition to fail")
	}
	return nil
}

func InitializeControllerStateScenario(ctx *godog.ScenarioContext) {
	cc := &controllerStateContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		cc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a controller state machine$`, cc.aControllerStateMachine)
	ctx.Step(`^a controller state machine in "([^"]*)"$`, cc.aControllerStateMachineIn)

	// When steps
	ctx.Step(`^I create a controller state machine$`, cc.iCreateAControllerStateMachine)
	ctx.Step(`^the controller begins a run$`, cc.theControllerBeginsARun)
	ctx.Step(`^the bridge becomes ready$`, cc.theBridgeBecomesReady)
	ctx.Step(`^the session is authenticated$`, cc.theSessionIsAuthenticated)
	ctx.Step(`^(\d+) seconds pass on the controller clock$`, cc.secondsPass)
	ctx.Step(`^the controller is stopped$`, cc.theControllerIsStopped)
	ctx.Step(`^the controller is stopped with cause "([^"]*)"$`, cc.theControllerIsStoppedWithCause)
	ctx.Step(`^the controller attempts "([^"]*)"$`, cc.theControllerAttempts)

	// Then steps
	ctx.Step(`^the controller state should be "([^"]*)"$`, cc.theControllerStateShouldBe)
	ctx.Step(`^the controller should be running$`, cc.theControllerShouldBeRunning)
	ctx.Step(`^the controller should not be running$`, cc.theControllerShouldNotBeRunning)
	ctx.Step(`^the controller started timestamp should be nil$`, cc.theStartedTimestampShouldBeNil)
	ctx.Step(`^the controller runtime should be (\d+) seconds$`, cc.theRuntimeShouldBe)
	ctx.Step(`^the controller last error should be empty$`, cc.theLastErrorShouldBeEmpty)
	ctx.Step(`^the controller last error should be "([^"]*)"$`, cc.theLastErrorShouldBe)
	ctx.Step(`^the transition should fail$`, cc.theTransitionShouldFail)
}
