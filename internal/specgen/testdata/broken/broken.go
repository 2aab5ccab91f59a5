package broken

type Pipe struct {
	Events chan int `tag:"events"`
}
