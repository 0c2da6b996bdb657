package convert

//go:generate go tool stringer -type=Stage -trimprefix=Stage -output=stage_string.go

// Stage is a step of the conversion pipeline.
type Stage int

const (
	StageStart Stage = iota
	StageGroup
	StageAssign
	StageMap
	StageExtensions
	StageDone
	StageFailed
)
