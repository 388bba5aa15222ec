package models

import "strings"

// BatchSuffix marks the resource-accounting shadow step of a parent job.
const BatchSuffix = ".batch"

type Jobs []Job

// Job is one sacct entry for a job or job step. All fields are kept as the
// opaque strings sacct prints.
type Job struct {
	JobID   string `json:"jobid"`   // 作业ID, 子步骤带 .batch 后缀
	Name    string `json:"name"`    // 作业名
	State   string `json:"state"`   // 状态
	Start   string `json:"start"`   // 开始时间
	End     string `json:"end"`     // 结束时间
	Elapsed string `json:"elapsed"` // 运行时长
	Memory  string `json:"memory"`  // MaxRSS
	CPUs    string `json:"cpus"`    // NCPUS
}

// IsBatchStep reports whether the record is a .batch sub-task of a parent job.
func (j Job) IsBatchStep() bool {
	return strings.HasSuffix(j.JobID, BatchSuffix)
}
