package router

// Code is the terminal outcome of one route request.
type Code int

const (
	NoError Code = iota
	NoPath
	StartPointNotFound
	EndPointNotFound
	RouteFileNotExist
	Cancelled
	InternalError
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "no error"
	case NoPath:
		return "route not found"
	case StartPointNotFound:
		return "start point not found"
	case EndPointNotFound:
		return "end point not found"
	case RouteFileNotExist:
		return "route file not exist"
	case Cancelled:
		return "cancelled"
	case InternalError:
		return "internal error"
	default:
		return "unknown"
	}
}
