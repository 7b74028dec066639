package tango

import "fmt"

// CoordinateFrame identifies the reference frame of a pose.
type CoordinateFrame int32

const (
	FrameGlobalWGS84 CoordinateFrame = iota
	FrameAreaDescription
	FrameStartOfService
	FramePreviousDevicePose
	FrameDevice
	FrameIMU
	FrameDisplay
	FrameCameraColor
	FrameCameraDepth
	FrameCameraFisheye
	FrameUUID
	FrameInvalid
)

var frameNames = [...]string{
	FrameGlobalWGS84:        "GLOBAL_WGS84",
	FrameAreaDescription:    "AREA_DESCRIPTION",
	FrameStartOfService:     "START_OF_SERVICE",
	FramePreviousDevicePose: "PREVIOUS_DEVICE_POSE",
	FrameDevice:             "DEVICE",
	FrameIMU:                "IMU",
	FrameDisplay:            "DISPLAY",
	FrameCameraColor:        "CAMERA_COLOR",
	FrameCameraDepth:        "CAMERA_DEPTH",
	FrameCameraFisheye:      "CAMERA_FISHEYE",
	FrameUUID:               "UUID",
	FrameInvalid:            "INVALID",
}

func (f CoordinateFrame) String() string {
	if f >= 0 && int(f) < len(frameNames) {
		return frameNames[f]
	}
	return fmt.Sprintf("CoordinateFrame(%d)", int32(f))
}

// PoseStatus is the tracking state reported with a pose.
type PoseStatus int32

const (
	PoseInitializing PoseStatus = iota
	PoseValid
	PoseInvalid
	PoseUnknown
)

var statusNames = [...]string{
	PoseInitializing: "INITIALIZING",
	PoseValid:        "VALID",
	PoseInvalid:      "INVALID",
	PoseUnknown:      "UNKNOWN",
}

func (s PoseStatus) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("PoseStatus(%d)", int32(s))
}
