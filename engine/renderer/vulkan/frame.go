package vulkan

import "github.com/palantir/stacktrace"

// frameStage is the GPU side of one frame, split into the steps frameLoop
// sequences.
type frameStage interface {
	WaitForInFlightFence(frame uint32) error
	AcquireNextImage(frame uint32) (image uint32, outOfDate bool, err error)
	WasResized() bool
	UpdateUniforms(frame uint32) error
	ResetInFlightFence(frame uint32) error
	Record(frame, image uint32) error
	Submit(frame uint32) error
	Present(frame, image uint32) (outOfDate bool, err error)
	Recreate() error
	// EndFrame returns the frame index to use next.
	EndFrame(frame uint32) uint32
}

// frameLoop drives frames through a stage, deferring swapchain recreation to
// the start of the next draw.
type frameLoop struct {
	stage          frameStage
	frame          uint32
	shouldRecreate bool
}

// Draw renders one frame. drawn is false when the frame was skipped for a
// pending recreation.
func (fl *frameLoop) Draw() (drawn bool, err error) {
	if fl.shouldRecreate {
		if err := fl.stage.Recreate(); err != nil {
			return false, stacktrace.Propagate(err, "could not recreate the swapchain")
		}
		fl.shouldRecreate = false
	}

	frame := fl.frame
	if err := fl.stage.WaitForInFlightFence(frame); err != nil {
		return false, err
	}

	image, outOfDate, err := fl.stage.AcquireNextImage(frame)
	if err != nil {
		return false, err
	}
	if outOfDate {
		fl.shouldRecreate = true
		return false, nil
	}
	// The fence is still signaled here, so skipping the submit cannot stall
	// the next wait.
	if fl.stage.WasResized() {
		fl.shouldRecreate = true
		return false, nil
	}

	if err := fl.stage.UpdateUniforms(frame); err != nil {
		return false, err
	}
	if err := fl.stage.ResetInFlightFence(frame); err != nil {
		return false, err
	}
	if err := fl.stage.Record(frame, image); err != nil {
		return false, err
	}
	if err := fl.stage.Submit(frame); err != nil {
		return false, err
	}

	outOfDate, err = fl.stage.Present(frame, image)
	if err != nil {
		return false, err
	}
	if outOfDate {
		fl.shouldRecreate = true
	}

	fl.frame = fl.stage.EndFrame(frame)
	return true, nil
}
